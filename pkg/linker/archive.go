package linker

import (
	"strconv"
	"strings"
)

// ReadArchiveMembers splits a Unix ar(1) archive into its constituent
// Files, skipping the symbol-table (`/`) and extended-name-table (`//`)
// special members. Grounded on the common ar format used by every Unix
// toolchain: an 8-byte "!<arch>\n" global header followed by a sequence
// of 60-byte ASCII member headers (name, mtime, uid, gid, mode, size,
// magic), each followed by size bytes of data, 2-byte aligned.
func ReadArchiveMembers(file *File) []*File {
	contents := file.Contents
	if len(contents) < len(arMagic) || string(contents[:len(arMagic)]) != arMagic {
		return nil
	}

	pos := len(arMagic)
	var longNames []byte
	var files []*File

	for pos+60 <= len(contents) {
		hdr := contents[pos : pos+60]
		name := strings.TrimRight(string(hdr[0:16]), " ")
		sizeField := strings.TrimSpace(string(hdr[48:58]))
		size, err := strconv.Atoi(sizeField)
		if err != nil {
			break
		}

		dataStart := pos + 60
		dataEnd := dataStart + size
		if dataEnd > len(contents) {
			break
		}
		data := contents[dataStart:dataEnd]

		switch {
		case name == "/":
			// Symbol lookup table. Not needed: symbol resolution here
			// always walks every member's symtab directly.
		case name == "//":
			longNames = data
		case strings.HasPrefix(name, "/"):
			// Reference into the long-names table: "/<offset>".
			if off, err := strconv.Atoi(name[1:]); err == nil && off < len(longNames) {
				name = extractLongName(longNames, off)
				files = append(files, &File{Name: name, Contents: data, Parent: file})
			}
		default:
			name = strings.TrimSuffix(name, "/")
			files = append(files, &File{Name: name, Contents: data, Parent: file})
		}

		pos = dataEnd
		if pos%2 != 0 {
			pos++ // members are 2-byte aligned
		}
	}

	return files
}

func extractLongName(table []byte, off int) string {
	end := off
	for end < len(table) && table[end] != '\n' {
		end++
	}
	return strings.TrimRight(string(table[off:end]), "/")
}
