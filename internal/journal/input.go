package journal

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/campaignjournal/internal/models"
)

// Input carries the user-editable fields of a document. References to other
// documents are given by slug.
type Input struct {
	Name     string        `json:"name"`
	Notes    string        `json:"notes"`
	Parent   string        `json:"parent,omitempty"`
	Location string        `json:"location,omitempty"`
	Status   models.Status `json:"status,omitempty"`
	Class    string        `json:"class,omitempty"`
	Race     string        `json:"race,omitempty"`
	NoteType string        `json:"note_type,omitempty"`
}

func (in *Input) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Parent = strings.TrimSpace(in.Parent)
	in.Location = strings.TrimSpace(in.Location)
	in.Status = models.Status(strings.ToLower(strings.TrimSpace(string(in.Status))))
}

// validate applies the field rules of category c.
func (in Input) validate(c models.Category) error {
	rules := []*validation.FieldRules{
		validation.Field(&in.Name, validation.Required, validation.RuneLength(1, models.MaxNameLength)),
	}
	switch c {
	case models.CategoryCharacter:
		rules = append(rules,
			validation.Field(&in.Status, validation.In(models.StatusAlive, models.StatusDead)),
			validation.Field(&in.Class, validation.RuneLength(0, models.MaxNameLength)),
			validation.Field(&in.Race, validation.RuneLength(0, models.MaxNameLength)),
		)
	case models.CategoryNote:
		rules = append(rules, validation.Field(&in.NoteType, validation.In(models.NoteTypeGeneral)))
	}
	return validation.ValidateStruct(&in, rules...)
}

// InputFrom returns the editable fields of d.
func InputFrom(d *models.Document) Input {
	return Input{
		Name:     d.Name,
		Notes:    d.Notes,
		Parent:   d.ParentSlug,
		Location: d.LocationSlug,
		Status:   d.Status,
		Class:    d.Class,
		Race:     d.Race,
		NoteType: d.NoteType,
	}
}
