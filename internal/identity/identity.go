package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strings"

	apperrors "github.com/yungbote/langqc-backend/internal/pkg/errors"
)

var checksumRe = regexp.MustCompile(`^[a-fA-F0-9]{64}$`)

// ProductID is the canonical 64 hex character checksum of a product.
type ProductID string

func (p ProductID) String() string { return string(p) }

// Parse validates the format of an incoming product id. It never rewrites
// the value beyond trimming surrounding whitespace.
func Parse(s string) (ProductID, error) {
	s = strings.TrimSpace(s)
	if !checksumRe.MatchString(s) {
		return "", apperrors.InvalidArgument("id_product", s, "must be a 64 character hexadecimal checksum")
	}
	return ProductID(s), nil
}

// ParseAll validates every id and keeps the input order.
func ParseAll(in []string) ([]ProductID, error) {
	out := make([]ProductID, 0, len(in))
	for _, s := range in {
		id, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// Coordinates are the real world coordinates of a sequencing product.
type Coordinates struct {
	RunName     string `json:"run_name"`
	WellLabel   string `json:"well_label"`
	PlateNumber *int   `json:"plate_number,omitempty"`
	Tags        string `json:"tags,omitempty"`
}

// JSON is the canonical serialization: keys sorted, unset values omitted.
func (c Coordinates) JSON() string {
	m := map[string]any{
		"run_name":   c.RunName,
		"well_label": c.WellLabel,
	}
	if c.PlateNumber != nil {
		m["plate_number"] = *c.PlateNumber
	}
	if c.Tags != "" {
		m["tags"] = c.Tags
	}
	b, _ := json.Marshal(m)
	return string(b)
}

// Digest is the sha256 hex digest of the canonical JSON.
func (c Coordinates) Digest() string {
	sum := sha256.Sum256([]byte(c.JSON()))
	return hex.EncodeToString(sum[:])
}

// Resolver maps coordinates to a product id. The algorithm belongs to an
// upstream identity service and must stay swappable.
type Resolver interface {
	ProductID(c Coordinates) (ProductID, error)
}

// PacBioResolver hashes the canonical coordinate JSON with sha256.
type PacBioResolver struct{}

func NewPacBioResolver() Resolver { return PacBioResolver{} }

func (PacBioResolver) ProductID(c Coordinates) (ProductID, error) {
	if strings.TrimSpace(c.RunName) == "" {
		return "", apperrors.InvalidArgument("run_name", c.RunName, "must not be empty")
	}
	if strings.TrimSpace(c.WellLabel) == "" {
		return "", apperrors.InvalidArgument("well_label", c.WellLabel, "must not be empty")
	}
	if c.PlateNumber != nil && *c.PlateNumber < 1 {
		return "", apperrors.InvalidArgument("plate_number", "", "must be positive")
	}
	return ProductID(c.Digest()), nil
}

// ResolverFunc adapts a plain function, mostly for tests.
type ResolverFunc func(c Coordinates) (ProductID, error)

func (f ResolverFunc) ProductID(c Coordinates) (ProductID, error) { return f(c) }
