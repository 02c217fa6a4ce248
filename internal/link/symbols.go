// Package link attaches native symbol names and owning libraries to the
// functions of a library.
package link

import (
	"bufio"
	"context"
	"debug/elf"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// SymsExt marks plain-text export lists: one symbol per line, '#' starts a
// comment. The library name is the file name without the extension.
const SymsExt = ".syms"

// SymbolTable maps exported symbol names to the libraries exporting them.
type SymbolTable struct {
	exports   map[string][]string
	libraries []string
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{exports: make(map[string][]string)}
}

// Add records that library exports names.
func (t *SymbolTable) Add(library string, names ...string) {
	if !slices.Contains(t.libraries, library) {
		t.libraries = append(t.libraries, library)
	}
	for _, n := range names {
		if !slices.Contains(t.exports[n], library) {
			t.exports[n] = append(t.exports[n], library)
		}
	}
}

// Lookup returns the libraries exporting name in load order.
func (t *SymbolTable) Lookup(name string) []string {
	return t.exports[name]
}

// Libraries lists every loaded library in load order.
func (t *SymbolTable) Libraries() []string {
	return t.libraries
}

// Len returns the number of distinct symbols.
func (t *SymbolTable) Len() int {
	return len(t.exports)
}

type loaded struct {
	library string
	names   []string
}

// LoadSymbols reads every source concurrently. Sources are shared objects
// or SymsExt export lists. Load order, and therefore ambiguity resolution,
// follows the order of paths.
func LoadSymbols(ctx context.Context, paths []string) (*SymbolTable, error) {
	results := make([]loaded, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(runtime.GOMAXPROCS(0), max(len(paths), 1)))
	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			lib, names, err := loadFile(path)
			if err != nil {
				return fmt.Errorf("load symbols from %s: %w", path, err)
			}
			results[i] = loaded{library: lib, names: names}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	t := NewSymbolTable()
	for _, r := range results {
		t.Add(r.library, r.names...)
	}
	return t, nil
}

func loadFile(path string) (string, []string, error) {
	if strings.EqualFold(filepath.Ext(path), SymsExt) {
		names, err := readSyms(path)
		return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), names, err
	}
	names, err := readELF(path)
	return filepath.Base(path), names, err
}

func readSyms(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, sc.Err()
}

// readELF lists the defined global and weak functions and objects of the
// dynamic symbol table.
func readELF(path string) ([]string, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	syms, err := f.DynamicSymbols()
	if err != nil {
		if errors.Is(err, elf.ErrNoSymbols) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, s := range syms {
		if s.Section == elf.SHN_UNDEF {
			continue
		}
		switch elf.ST_BIND(s.Info) {
		case elf.STB_GLOBAL, elf.STB_WEAK:
		default:
			continue
		}
		switch elf.ST_TYPE(s.Info) {
		case elf.STT_FUNC, elf.STT_OBJECT:
			names = append(names, s.Name)
		}
	}
	return names, nil
}
