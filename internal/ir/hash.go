package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/hpl/internal/ast"
)

// Domain prefixes for content identity. The version suffix leaves room
// to change the encoding without colliding with old IDs.
const (
	DomainProperty      = "hpl/property/v1"
	DomainSpecification = "hpl/specification/v1"
)

// hashWithDomain computes SHA256(domain || 0x00 || data) as hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// PropertyID is the content ID of a property. Metadata does not take
// part, so two properties that are Equal share an ID.
func PropertyID(p *ast.Property) (string, error) {
	canonical, err := MarshalCanonical(propertyBody(p))
	if err != nil {
		return "", fmt.Errorf("PropertyID: %w", err)
	}
	return hashWithDomain(DomainProperty, canonical), nil
}

// SpecificationID hashes the ordered list of property IDs.
func SpecificationID(s *ast.Specification) (string, error) {
	ids := make(IRArray, len(s.Properties))
	for i, p := range s.Properties {
		id, err := PropertyID(p)
		if err != nil {
			return "", fmt.Errorf("property %d: %w", i+1, err)
		}
		ids[i] = IRString(id)
	}
	canonical, err := MarshalCanonical(ids)
	if err != nil {
		return "", fmt.Errorf("SpecificationID: %w", err)
	}
	return hashWithDomain(DomainSpecification, canonical), nil
}

// MustPropertyID is like PropertyID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustPropertyID(p *ast.Property) string {
	id, err := PropertyID(p)
	if err != nil {
		panic(err)
	}
	return id
}
