package linker

import (
	"github.com/rod-salazar/mold/pkg/utils"
)

// ReadInputFiles walks the command line's positional arguments (object
// files and `-l<name>` library references) and populates ctx.Objs /
// ctx.SharedObjs. Archive members are extracted and each turned into an
// ObjectFile with IsAlive initially false, deferring the decision of
// whether to pull them into the link to MarkLiveObjects.
func ReadInputFiles(ctx *Context, remaining []string) {
	for _, arg := range remaining {
		var ok bool
		if arg, ok = utils.RemovePrefix(arg, "-l"); ok {
			ReadFile(ctx, FindLibrary(ctx, arg, false))
		} else {
			ReadFile(ctx, MustNewFile(arg))
		}
	}
}

func ReadFile(ctx *Context, file *File) {
	switch GetFileType(file.Contents) {
	case FileTypeObject:
		ctx.Objs = append(ctx.Objs, CreateObjectFile(ctx, file, false))
	case FileTypeSharedObject:
		ctx.SharedObjs = append(ctx.SharedObjs, CreateSharedFile(ctx, file))
	case FileTypeArchive:
		for _, child := range ReadArchiveMembers(file) {
			if GetFileType(child.Contents) != FileTypeObject {
				continue
			}
			ctx.Objs = append(ctx.Objs, CreateObjectFile(ctx, child, true))
		}
	default:
		utils.Fatal("unknown file type: " + file.Name)
	}
}

func CreateObjectFile(ctx *Context, file *File, inLib bool) *ObjectFile {
	CheckFileCompatibility(ctx, file)

	obj := NewObjectFile(file, !inLib)
	obj.Parse(ctx)
	return obj
}

// CheckFileCompatibility aborts the link if file's machine type doesn't
// match the machine type sniffed from the first input file (spec.md §6's
// "reject mismatched-architecture inputs" ambient requirement). The very
// first file establishes ctx.Machine.
func CheckFileCompatibility(ctx *Context, file *File) {
	mt := GetMachineTypeFromContents(file.Contents)
	if mt == MachineTypeNone {
		utils.Fatal(file.Name + ": unrecognized machine type")
	}
	if ctx.Machine == MachineTypeNone {
		ctx.Machine = mt
		return
	}
	if ctx.Machine != mt {
		utils.Fatal(file.Name + ": incompatible file machine type")
	}
}
