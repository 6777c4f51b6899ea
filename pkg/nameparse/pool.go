// Package nameparse checks if scientific names are well-formed.
// Parsing is computation, not I/O, so the package stays pure.
package nameparse

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/gnames/gnlib/ent/nomcode"
	"github.com/gnames/gnparser"
	"github.com/gnames/gnparser/ent/parsed"
)

// Pool provides gnparser instances for concurrent parsing.
type Pool interface {
	// Parse parses a scientific name string using the nomenclatural code.
	// It is safe for concurrent use.
	Parse(nameString string, code nomcode.Code) (parsed.Parsed, error)

	// Close releases parsers. The pool cannot be used after Close.
	Close()
}

// PoolImpl keeps separate parsers for botanical and zoological codes.
type PoolImpl struct {
	botanicalCh  chan gnparser.GNparser
	zoologicalCh chan gnparser.GNparser
}

// NewPool creates a pool with jobsNum parsers per code, runtime.NumCPU()
// for 0.
func NewPool(jobsNum int) Pool {
	poolSize := jobsNum
	if poolSize <= 0 {
		poolSize = runtime.NumCPU()
	}

	botanicalCfg := gnparser.NewConfig(gnparser.OptCode(nomcode.Botanical))
	zoologicalCfg := gnparser.NewConfig(gnparser.OptCode(nomcode.Zoological))

	return &PoolImpl{
		botanicalCh:  gnparser.NewPool(botanicalCfg, poolSize),
		zoologicalCh: gnparser.NewPool(zoologicalCfg, poolSize),
	}
}

// Parse takes a parser of the code from the pool, parses the name and
// returns the parser back.
func (p *PoolImpl) Parse(nameString string, code nomcode.Code) (parsed.Parsed, error) {
	var ch chan gnparser.GNparser
	switch code {
	case nomcode.Botanical:
		ch = p.botanicalCh
	case nomcode.Zoological:
		ch = p.zoologicalCh
	default:
		return parsed.Parsed{}, fmt.Errorf("unsupported nomenclatural code: %v", code)
	}

	parser := <-ch
	res := parser.ParseName(nameString)
	ch <- parser

	return res, nil
}

// Close drains both pools.
func (p *PoolImpl) Close() {
	if p.botanicalCh != nil {
		close(p.botanicalCh)
		for range p.botanicalCh {
		}
	}
	if p.zoologicalCh != nil {
		close(p.zoologicalCh)
		for range p.zoologicalCh {
		}
	}
}

// Code converts a Darwin Core nomenclaturalCode value to a code the pool
// supports. Botanical codes (ICN, ICNafp, ICBN) go to the botanical parser,
// everything else, including empty values, to the zoological one.
func Code(nomenclaturalCode string) nomcode.Code {
	switch strings.ToUpper(strings.TrimSpace(nomenclaturalCode)) {
	case "ICN", "ICNAFP", "ICBN", "BOTANICAL":
		return nomcode.Botanical
	default:
		return nomcode.Zoological
	}
}
