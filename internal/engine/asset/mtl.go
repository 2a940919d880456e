package asset

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Material is the subset of an MTL material the renderer uses.
type Material struct {
	Name       string
	DiffuseMap string // relative to the material directory
}

// ParseMTL reads a material library.
func ParseMTL(path string) (map[string]Material, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mats := map[string]Material{}
	var cur *Material

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "newmtl":
			if cur != nil {
				mats[cur.Name] = *cur
			}
			name := ""
			if len(fields) > 1 {
				name = fields[1]
			}
			cur = &Material{Name: name}
		case "map_Kd":
			// Options like -s 1 1 1 precede the filename
			if cur != nil && len(fields) > 1 {
				cur.DiffuseMap = normalizeTexturePath(fields[len(fields)-1])
			}
		}
	}
	if cur != nil {
		mats[cur.Name] = *cur
	}
	return mats, scanner.Err()
}

// normalizeTexturePath accepts backslash separators written by Windows exporters.
func normalizeTexturePath(p string) string {
	return filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))
}
