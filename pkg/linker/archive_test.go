package linker

import (
	"bytes"
	"fmt"
	"testing"
)

// buildArMember renders one 60-byte ar member header plus its
// (possibly padded) data, following the fixed-width ASCII field layout:
// name(16) mtime(12) uid(6) gid(6) mode(8) size(10) magic(2).
func buildArMember(name string, data []byte) []byte {
	hdr := fmt.Sprintf("%-16s%-12s%-6s%-6s%-8s%-10s%s", name, "0", "0", "0", "0", fmt.Sprint(len(data)), "`\n")
	buf := append([]byte(hdr), data...)
	if len(buf)%2 != 0 {
		buf = append(buf, '\n')
	}
	return buf
}

func TestReadArchiveMembersShortNames(t *testing.T) {
	var raw bytes.Buffer
	raw.WriteString(arMagic)
	raw.Write(buildArMember("foo.o/", []byte("FOO-CONTENTS")))
	raw.Write(buildArMember("bar.o/", []byte("BAR")))

	file := &File{Name: "lib.a", Contents: raw.Bytes()}
	members := ReadArchiveMembers(file)

	if len(members) != 2 {
		t.Fatalf("got %d members, want 2", len(members))
	}
	if members[0].Name != "foo.o" || string(members[0].Contents) != "FOO-CONTENTS" {
		t.Errorf("member 0 = %q/%q, want foo.o/FOO-CONTENTS", members[0].Name, members[0].Contents)
	}
	if members[1].Name != "bar.o" || string(members[1].Contents) != "BAR" {
		t.Errorf("member 1 = %q/%q, want bar.o/BAR", members[1].Name, members[1].Contents)
	}
	for _, m := range members {
		if m.Parent != file {
			t.Errorf("member %q.Parent = %v, want the archive file", m.Name, m.Parent)
		}
	}
}

func TestReadArchiveMembersLongNameTable(t *testing.T) {
	longNames := "a_very_long_member_name_that_overflows_the_16_byte_field.o/\n"

	var raw bytes.Buffer
	raw.WriteString(arMagic)
	raw.Write(buildArMember("//", []byte(longNames)))
	raw.Write(buildArMember("/0", []byte("PAYLOAD")))

	file := &File{Name: "lib.a", Contents: raw.Bytes()}
	members := ReadArchiveMembers(file)

	if len(members) != 1 {
		t.Fatalf("got %d members, want 1 (the // table itself must not become a member)", len(members))
	}
	want := "a_very_long_member_name_that_overflows_the_16_byte_field.o"
	if members[0].Name != want {
		t.Errorf("long member name = %q, want %q", members[0].Name, want)
	}
	if string(members[0].Contents) != "PAYLOAD" {
		t.Errorf("long-name member contents = %q, want PAYLOAD", members[0].Contents)
	}
}

func TestReadArchiveMembersRejectsNonArchive(t *testing.T) {
	file := &File{Name: "not-an-archive.o", Contents: []byte("\x7fELF...")}
	if got := ReadArchiveMembers(file); got != nil {
		t.Errorf("ReadArchiveMembers on non-archive contents = %v, want nil", got)
	}
}
