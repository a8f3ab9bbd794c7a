package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	t := Table{Title: "Idea leaderboard", Headers: []string{"Rank", "Title", "Net"}}
	t.AddRow("1", "Robotics night, with snacks", "12")
	t.AddRow("2", "Open mic", "7")
	return t
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestCSVRender(t *testing.T) {
	out, err := For(FormatCSV).Render(sampleTable())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Rank,Title,Net", lines[0])
	assert.Equal(t, `1,"Robotics night, with snacks",12`, lines[1])
}

func TestRenderRejectsRaggedRows(t *testing.T) {
	table := sampleTable()
	table.AddRow("3", "missing net")
	_, err := NewCSVRenderer().Render(table)
	assert.Error(t, err)

	_, err = NewPDFRenderer().Render(Table{})
	assert.Error(t, err)
}

func TestPDFRender(t *testing.T) {
	r := For(FormatPDF)
	assert.Equal(t, "application/pdf", r.ContentType())
	out, err := r.Render(sampleTable())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
