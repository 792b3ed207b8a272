package material

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

type tomlMaterial struct {
	Name              string    `toml:"name"`
	ScatteringMoments int       `toml:"scattering_moments"`
	SigmaT            []float64 `toml:"sigma_t"`
	SigmaS            []float64 `toml:"sigma_s"`
	Nu                []float64 `toml:"nu"`
	SigmaF            []float64 `toml:"sigma_f"`
	Chi               []float64 `toml:"chi"`
	InternalSource    []float64 `toml:"internal_source"`
}

type tomlLibrary struct {
	Groups    int            `toml:"groups"`
	Materials []tomlMaterial `toml:"material"`
}

// Library is an ordered set of materials, addressed by index
type Library struct {
	Groups    int
	Materials []*Material
	byName    map[string]int
}

// DecodeLibrary reads a TOML cross section library. Omitted reaction data
// defaults to zero, and the scattering moment count defaults to one.
func DecodeLibrary(r io.Reader) (lib *Library, err error) {
	var (
		tl tomlLibrary
	)
	if _, err = toml.DecodeReader(r, &tl); err != nil {
		err = fmt.Errorf("decoding cross section library: %w", err)
		return
	}
	lib = &Library{Groups: tl.Groups, byName: make(map[string]int)}
	G := tl.Groups
	zeroIfEmpty := func(v []float64, n int) []float64 {
		if len(v) == 0 {
			return make([]float64, n)
		}
		return v
	}
	for i, tm := range tl.Materials {
		L := tm.ScatteringMoments
		if L == 0 {
			L = 1
		}
		m := &Material{
			Index:             i,
			Name:              tm.Name,
			Groups:            G,
			ScatteringMoments: L,
			SigmaT:            tm.SigmaT,
			SigmaS:            zeroIfEmpty(tm.SigmaS, G*G*L),
			Nu:                zeroIfEmpty(tm.Nu, G),
			SigmaF:            zeroIfEmpty(tm.SigmaF, G),
			Chi:               zeroIfEmpty(tm.Chi, G),
			InternalSource:    zeroIfEmpty(tm.InternalSource, G),
		}
		if err = m.Validate(); err != nil {
			return
		}
		if _, dup := lib.byName[m.Name]; dup {
			err = fmt.Errorf("material %q defined twice", m.Name)
			return
		}
		lib.byName[m.Name] = i
		lib.Materials = append(lib.Materials, m)
	}
	if len(lib.Materials) == 0 {
		err = fmt.Errorf("cross section library has no materials")
	}
	return
}

func LoadLibrary(path string) (lib *Library, err error) {
	var (
		f *os.File
	)
	if f, err = os.Open(path); err != nil {
		return
	}
	defer f.Close()
	return DecodeLibrary(f)
}

func (lib *Library) Index(name string) (index int, err error) {
	var ok bool
	if index, ok = lib.byName[name]; !ok {
		err = fmt.Errorf("material %q not in library", name)
	}
	return
}

func (lib *Library) Material(index int) *Material {
	return lib.Materials[index]
}

func (lib *Library) ScatteringMoments() (L int) {
	for _, m := range lib.Materials {
		if m.ScatteringMoments > L {
			L = m.ScatteringMoments
		}
	}
	return
}
