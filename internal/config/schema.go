package config

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// configSchema constrains the encoded Config. Durations encode as
// nanosecond integers.
const configSchema = `
server: {
	port:          int & >=1 & <=65535
	read_timeout:  int & >=0
	write_timeout: int & >=0
}
database: {
	type:           "sqlite" | "postgres"
	max_open_conns: int & >=1
	max_idle_conns: int & >=0
	log_level:      "silent" | "error" | "warn" | "info"
}
store: {
	backend: "sql" | "firestore"
}
catalog: {
	unrated_policy: "exclude" | "zero"
}
metadata: {
	request_timeout:   int & >0
	cache_ttl:         int & >=0
	debounce_window:   int & >=0
	description_limit: int & >0
	search_page_size:  int & >=1 & <=40
}
events: {
	buffer_size: int & >0
}
logging: {
	level:  "trace" | "debug" | "info" | "warn" | "error"
	format: "text" | "json"
}
`

// validateSchema unifies the config with configSchema and reports the first
// violation.
func validateSchema(cfg *Config) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(configSchema)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("invalid config schema: %w", err)
	}

	value := ctx.Encode(*cfg)
	if err := value.Err(); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := schema.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("config does not match schema: %w", err)
	}
	return nil
}
