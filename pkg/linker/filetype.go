package linker

import "github.com/rod-salazar/mold/pkg/utils"

// FileType classifies a raw input File before ObjectFile/SharedFile
// parsing begins.
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeObject
	FileTypeSharedObject
	FileTypeArchive
)

const arMagic = "!<arch>\n"

// ET_REL / ET_DYN are the two Ehdr.Type values the engine accepts as
// input: relocatable objects feed ObjectFile, shared objects feed
// SharedFile.
const (
	ET_REL  uint16 = 1
	ET_EXEC uint16 = 2
	ET_DYN  uint16 = 3
)

func GetFileType(contents []byte) FileType {
	if len(contents) >= len(arMagic) && string(contents[:len(arMagic)]) == arMagic {
		return FileTypeArchive
	}
	if len(contents) < EhdrSize || !CheckMagic(contents) {
		return FileTypeUnknown
	}
	ehdr := utils.Read[Ehdr](contents)
	switch ehdr.Type {
	case ET_REL:
		return FileTypeObject
	case ET_DYN:
		return FileTypeSharedObject
	default:
		return FileTypeUnknown
	}
}
