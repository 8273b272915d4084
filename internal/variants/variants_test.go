package variants

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_TwoPartName(t *testing.T) {
	g := NewGenerator(DefaultNicknames())

	set := g.Generate("  William Johnson ")

	for _, want := range []string{
		"william johnson",
		"w. j.",
		"w.johnson",
		"johnson, william",
		"bill johnson",
		"billy johnson",
		"will johnson",
	} {
		assert.True(t, set.Contains(want), "missing %q in %s", want, set)
	}
	assert.Equal(t, "william johnson", set.Items()[0])
}

func TestGenerate_ThreePartName(t *testing.T) {
	g := NewGenerator(nil)

	set := g.Generate("John Michael Davis")

	for _, want := range []string{
		"john michael davis",
		"j. m. d.",
		"j.m.davis",
		"davis, john michael",
		"michael davis",
		"davis, michael",
		"john davis",
		"davis michael",
	} {
		assert.True(t, set.Contains(want), "missing %q in %s", want, set)
	}
}

func TestGenerate_NicknameInAnyPosition(t *testing.T) {
	g := NewGenerator(Nicknames{"james": {"jim"}})

	set := g.Generate("Robert James Miller")

	assert.True(t, set.Contains("robert jim miller"))
}

func TestGenerate_Mononym(t *testing.T) {
	g := NewGenerator(DefaultNicknames())

	set := g.Generate("Madonna")

	assert.Equal(t, []string{"madonna"}, set.Items())
}

func TestGenerate_MononymHasNoNicknames(t *testing.T) {
	g := NewGenerator(DefaultNicknames())

	set := g.Generate("William")

	assert.Equal(t, []string{"william"}, set.Items())
}

func TestGenerate_StripsPunctuation(t *testing.T) {
	g := NewGenerator(nil)

	set := g.Generate("Patrick O'Brien")

	assert.True(t, set.Contains("patrick o'brien"))
	assert.True(t, set.Contains("patrick obrien"))
}

func TestGenerate_Blank(t *testing.T) {
	g := NewGenerator(nil)
	assert.Zero(t, g.Generate("   ").Len())
}

func TestGenerate_NoDuplicates(t *testing.T) {
	g := NewGenerator(Nicknames{"daniel": {"dan", "dan", "danny"}})

	items := g.Generate("Daniel Craig").Items()

	seen := make(map[string]bool)
	for _, item := range items {
		assert.False(t, seen[item], "duplicate variant %q", item)
		assert.Equal(t, strings.ToLower(item), item)
		seen[item] = true
	}
}

func TestSet_ItemsIsCopy(t *testing.T) {
	set := NewGenerator(nil).Generate("Jane Doe")
	items := set.Items()
	items[0] = "mutated"
	assert.Equal(t, "jane doe", set.Items()[0])
}

func TestParseNicknames(t *testing.T) {
	csv := "name1,relationship,name2\n" +
		"William,has_nickname,Bill\n" +
		"william,has_nickname,bill\n" +
		"william,has_nickname,will\n" +
		"bill,is_nickname_of,william\n" +
		"short,row\n" +
		"margaret,has_nickname,peggy\n"

	table, err := ParseNicknames(strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, []string{"bill", "will"}, table.Lookup("William"))
	assert.Equal(t, []string{"peggy"}, table.Lookup("margaret"))
	assert.Nil(t, table.Lookup("bill"))
	assert.Equal(t, []string{"margaret", "william"}, table.Names())
}

func TestParseNicknames_BadHeader(t *testing.T) {
	_, err := ParseNicknames(strings.NewReader("first,second\nwilliam,bill\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name1, relationship and name2")
}

func TestLoadNicknames_Dataset(t *testing.T) {
	table, err := LoadNicknames(filepath.Join("..", "..", "data", "names.csv"))
	require.NoError(t, err)
	assert.Contains(t, table.Lookup("william"), "bill")
	assert.Contains(t, table.Lookup("abigail"), "abby")
}

func TestLoadNicknamesOrDefault(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		table, err := LoadNicknamesOrDefault(filepath.Join(t.TempDir(), "missing.csv"))
		assert.Error(t, err)
		assert.Equal(t, DefaultNicknames(), table)
	})

	t.Run("empty path", func(t *testing.T) {
		table, err := LoadNicknamesOrDefault("")
		assert.Error(t, err)
		assert.Equal(t, DefaultNicknames().Len(), table.Len())
	})

	t.Run("no nickname rows", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "names.csv")
		require.NoError(t, os.WriteFile(path, []byte("name1,relationship,name2\nbill,is_nickname_of,william\n"), 0644))

		table, err := LoadNicknamesOrDefault(path)
		assert.Error(t, err)
		assert.Contains(t, table.Lookup("william"), "bill")
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "names.csv")
		require.NoError(t, os.WriteFile(path, []byte("name1,relationship,name2\nzachary,has_nickname,zach\n"), 0644))

		table, err := LoadNicknamesOrDefault(path)
		require.NoError(t, err)
		assert.Equal(t, Nicknames{"zachary": {"zach"}}, table)
	})
}
