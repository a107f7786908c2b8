package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	catalogerrors "github.com/mantonx/catalog/internal/modules/catalogmodule/errors"
)

// itemFieldsJSON accepts the current field names and the Spanish names
// written by earlier clients. The current name wins when both are sent.
type itemFieldsJSON struct {
	Title          *string `json:"title"`
	Genre          *string `json:"genre"`
	Year           flexInt `json:"year"`
	Description    *string `json:"description"`
	ImageURL       *string `json:"imageUrl"`
	Studio         *string `json:"studio"`
	Platform       *string `json:"platform"`
	Seasons        flexInt `json:"seasons"`
	RuntimeMinutes flexInt `json:"runtimeMinutes"`

	Titulo      *string `json:"titulo"`
	Genero      *string `json:"genero"`
	Anio        flexInt `json:"anio"`
	Descripcion *string `json:"descripcion"`
	Imagen      *string `json:"imagen"`
	Estudio     *string `json:"estudio"`
	Plataforma  *string `json:"plataforma"`
	Temporadas  flexInt `json:"temporadas"`
	Duracion    flexInt `json:"duracion"`
}

// UnmarshalJSON reads current and legacy field names. Numeric fields take
// numbers or numeric strings; an empty string means absent.
func (f *ItemFields) UnmarshalJSON(data []byte) error {
	var in itemFieldsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*f = ItemFields{
		Title:          firstString(in.Title, in.Titulo),
		Genre:          firstString(in.Genre, in.Genero),
		Year:           firstInt(in.Year, in.Anio),
		Description:    firstString(in.Description, in.Descripcion),
		ImageURL:       firstString(in.ImageURL, in.Imagen),
		Studio:         firstString(in.Studio, in.Estudio),
		Platform:       firstString(in.Platform, in.Plataforma),
		Seasons:        firstInt(in.Seasons, in.Temporadas),
		RuntimeMinutes: firstInt(in.RuntimeMinutes, in.Duracion),
	}
	return nil
}

// LeadingInt reads the digits at the start of s, so "2021", " 155 min" and
// "2008–2013" all parse. ok is false when s does not start with a digit.
func LeadingInt(s string) (n int, ok bool) {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		ok = true
	}
	return n, ok
}

// flexInt is an optional integer sent either as a number or as a string
type flexInt struct {
	value *int
}

func (n *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
		v, ok := LeadingInt(s)
		if !ok {
			return fmt.Errorf("%w: %q is not a number", catalogerrors.ErrInvalidInput, s)
		}
		n.value = &v
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: %s is not a number", catalogerrors.ErrInvalidInput, data)
	}
	v := int(f)
	n.value = &v
	return nil
}

func firstString(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstInt(values ...flexInt) *int {
	for _, v := range values {
		if v.value != nil {
			return v.value
		}
	}
	return nil
}
