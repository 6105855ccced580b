package ingest

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
)

// aliasFile is the on-disk override format:
//
//	aliases:
//	  班次一: [平日班次, 週一班次]
//	  公司名稱: [業者名稱]
type aliasFile struct {
	Aliases map[string][]string `yaml:"aliases"`
}

// LoadAliases reads extra header variants from a YAML file and merges them
// over the defaults. An empty path returns the defaults.
func LoadAliases(path string) (Aliases, error) {
	a := DefaultAliases()
	if path == "" {
		return a, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read aliases %s", path)
	}

	var af aliasFile
	if err := yaml.Unmarshal(data, &af); err != nil {
		return nil, eris.Wrapf(err, "ingest: parse aliases %s", path)
	}

	if err := a.Merge(af.Aliases); err != nil {
		return nil, err
	}
	return a, nil
}

// Merge adds variants keyed by canonical header. Unknown canonical headers
// are an error.
func (a Aliases) Merge(extra map[string][]string) error {
	canonicals := make([]string, 0, len(extra))
	for c := range extra {
		canonicals = append(canonicals, c)
	}
	sort.Strings(canonicals)

	for _, canonical := range canonicals {
		f, ok := route.FieldByHeader(NormalizeHeader(canonical))
		if !ok {
			return eris.Errorf("ingest: unknown canonical header %q in aliases", canonical)
		}
		for _, v := range extra[canonical] {
			a[NormalizeHeader(v)] = f
		}
	}
	return nil
}
