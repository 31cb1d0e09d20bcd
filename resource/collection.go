package resource

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// ErrUnknownCollectionKind is returned when a collection record carries
// an unrecognized type discriminant
var ErrUnknownCollectionKind = errors.New("unknown collection kind")

// CollectionKind discriminates the two collection record shapes
type CollectionKind string

// Collection kinds known to the platform
const (
	KindMandatoryCollection CollectionKind = "mandatoryCollection"
	KindLevy                CollectionKind = "levy"
)

// CollectionBase holds the fields shared by both collection shapes
type CollectionBase struct {
	ID                       string       `json:"id"`
	Name                     string       `json:"name"`
	Description              string       `json:"description,omitempty"`
	DueDate                  string       `json:"dueDate,omitempty"`
	BankAccountID            string       `json:"bankAccountId,omitempty"`
	BankAccount              *BankAccount `json:"bankAccount,omitempty"`
	IsActive                 bool         `json:"isActive"`
	Status                   string       `json:"status,omitempty"`
	TotalClaimedPaidAmount   Money        `json:"totalClaimedPaidAmount"`
	TotalPaidAmount          Money        `json:"totalPaidAmount"`
	ClaimedBalance           Money        `json:"claimedBalance"`
	Balance                  Money        `json:"balance"`
	RequiredPaymentAmount    Money        `json:"requiredPaymentAmount"`
	TotalOutstandingParishes int          `json:"totalOutstandingParishes"`
	TotalPaidParishes        int          `json:"totalPaidParishes"`
	TotalParishes            int          `json:"totalParishes"`
	Version                  int          `json:"version"`
	CreatedAt                string       `json:"createdAt,omitempty"`
	UpdatedAt                string       `json:"updatedAt,omitempty"`
}

// Collection represents either a mandatory collection or a levy.
// The Kind discriminant selects which of the two name fields is
// meaningful; DisplayName resolves it without dynamic field lookup.
type Collection struct {
	CollectionBase
	Kind CollectionKind

	mandatoryCollectionName string
	levyName                string
}

// DisplayName returns the kind-specific name of the collection
func (c Collection) DisplayName() string {
	switch c.Kind {
	case KindMandatoryCollection:
		return c.mandatoryCollectionName
	case KindLevy:
		return c.levyName
	default:
		return c.Name
	}
}

// UnmarshalJSON decodes a collection record by its type discriminant
func (c *Collection) UnmarshalJSON(b []byte) error {
	var probe struct {
		Type CollectionKind `json:"type"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return errors.Wrap(err, "failed to probe collection discriminant")
	}

	switch probe.Type {
	case KindMandatoryCollection:
		var rec struct {
			CollectionBase
			MandatoryCollectionName string `json:"mandatoryCollectionName"`
		}
		if err := json.Unmarshal(b, &rec); err != nil {
			return errors.Wrap(err, "failed to decode mandatory collection")
		}
		c.CollectionBase = rec.CollectionBase
		c.Kind = KindMandatoryCollection
		c.mandatoryCollectionName = rec.MandatoryCollectionName
	case KindLevy:
		var rec struct {
			CollectionBase
			LevyName string `json:"levyName"`
		}
		if err := json.Unmarshal(b, &rec); err != nil {
			return errors.Wrap(err, "failed to decode levy")
		}
		c.CollectionBase = rec.CollectionBase
		c.Kind = KindLevy
		c.levyName = rec.LevyName
	default:
		return errors.Wrapf(ErrUnknownCollectionKind, "type %q", probe.Type)
	}

	return nil
}

// MarshalJSON encodes the collection with its discriminant and
// kind-specific name field
func (c Collection) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindMandatoryCollection:
		return json.Marshal(struct {
			CollectionBase
			Type                    CollectionKind `json:"type"`
			MandatoryCollectionName string         `json:"mandatoryCollectionName"`
		}{c.CollectionBase, c.Kind, c.mandatoryCollectionName})
	case KindLevy:
		return json.Marshal(struct {
			CollectionBase
			Type     CollectionKind `json:"type"`
			LevyName string         `json:"levyName"`
		}{c.CollectionBase, c.Kind, c.levyName})
	default:
		return nil, errors.Wrapf(ErrUnknownCollectionKind, "kind %q", c.Kind)
	}
}
