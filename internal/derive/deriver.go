package derive

import (
	"fmt"

	"github.com/roach88/userstats/internal/ir"
)

// Derivation is the result of deriving an owner's address.
type Derivation struct {
	Address ir.Address `json:"address"`
	Bump    uint8      `json:"bump"`
}

// Deriver maps an owner identity to the one address that owner may act on.
// Implementations must be pure: the same owner always yields the same result.
type Deriver interface {
	Derive(owner ir.Identity) (Derivation, error)
}

// Func adapts a plain function to the Deriver interface.
type Func func(owner ir.Identity) (Derivation, error)

// Derive calls f(owner).
func (f Func) Derive(owner ir.Identity) (Derivation, error) { return f(owner) }

// PDA derives program addresses from the seeds [Tag, owner].
type PDA struct {
	Tag     []byte
	Program ir.Identity

	d deriver
}

var _ Deriver = (*PDA)(nil)

// NewPDA creates a deriver for the given namespace tag and program.
func NewPDA(tag string, program ir.Identity) *PDA {
	return &PDA{Tag: []byte(tag), Program: program, d: defaultDeriver}
}

// NewUserStats creates the deriver for UserStats records under program.
func NewUserStats(program ir.Identity) *PDA {
	return NewPDA(ir.NamespaceTag, program)
}

// Derive returns the owner's address and bump.
func (p *PDA) Derive(owner ir.Identity) (Derivation, error) {
	d := p.d
	if d.onCurve == nil {
		d = defaultDeriver
	}
	addr, bump, err := d.find([][]byte{p.Tag, owner[:]}, p.Program)
	if err != nil {
		return Derivation{}, fmt.Errorf("derive %s: %w", owner, err)
	}
	return Derivation{Address: addr, Bump: bump}, nil
}
