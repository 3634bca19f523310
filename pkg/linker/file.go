package linker

import (
	"os"

	"github.com/rod-salazar/mold/pkg/utils"
)

// File is a raw, named byte span read from disk — an archive, a
// relocatable object, or a shared object — before any ELF-specific
// interpretation. Parent points back to the owning archive when this
// File was extracted from one.
type File struct {
	Name     string
	Contents []byte
	Parent   *File
}

func MustNewFile(filename string) *File {
	contents, err := os.ReadFile(filename)
	utils.MustNo(err)
	return &File{
		Name:     filename,
		Contents: contents,
	}
}

func OpenLibrary(filepath string) *File {
	contents, err := os.ReadFile(filepath)
	if err != nil {
		return nil
	}

	return &File{
		Name:     filepath,
		Contents: contents,
	}
}

// FindLibrary resolves a `-l<name>` argument by searching the configured
// library search path for lib<name>.so first, then lib<name>.a, matching
// a standard linker's dynamic-over-static preference when both exist and
// static linking was not requested.
func FindLibrary(ctx *Context, name string, static bool) *File {
	for _, dir := range ctx.Args.LibraryPaths {
		if !static {
			if f := OpenLibrary(dir + "/lib" + name + ".so"); f != nil {
				return f
			}
		}
		if f := OpenLibrary(dir + "/lib" + name + ".a"); f != nil {
			return f
		}
	}

	utils.Fatal("library not found: -l" + name)
	return nil
}
