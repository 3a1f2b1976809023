package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/types"
)

type fakePDF struct {
	text  string
	err   error
	calls int
}

func (f *fakePDF) ExtractText(ctx context.Context, data []byte, uri string) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestDocumentExtractor_PlainText(t *testing.T) {
	d := NewDocumentExtractor(&fakePDF{})
	text, err := d.Extract(context.Background(), "resume.txt", []byte("John Doe\nPython developer"))
	require.NoError(t, err)
	assert.Equal(t, "John Doe\nPython developer", text)
}

func TestDocumentExtractor_EmptyFile(t *testing.T) {
	pdf := &fakePDF{}
	d := NewDocumentExtractor(pdf)
	_, err := d.Extract(context.Background(), "resume.pdf", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrExtraction)
	assert.Equal(t, 0, pdf.calls, "空文件不应进入PDF解析")
}

func TestDocumentExtractor_PDFDispatch(t *testing.T) {
	pdf := &fakePDF{text: "page one\n\npage three"}
	d := NewDocumentExtractor(pdf)

	text, err := d.Extract(context.Background(), "CV.PDF", []byte("%PDF-1.7 ..."))
	require.NoError(t, err)
	assert.Equal(t, "page one\n\npage three", text)
	assert.Equal(t, 1, pdf.calls)
}

func TestDocumentExtractor_PDFSniffedWithoutExtension(t *testing.T) {
	pdf := &fakePDF{text: "sniffed"}
	d := NewDocumentExtractor(pdf)

	text, err := d.Extract(context.Background(), "upload", []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n"))
	require.NoError(t, err)
	assert.Equal(t, "sniffed", text)
}

func TestDocumentExtractor_PDFFailureIsExtractionError(t *testing.T) {
	d := NewDocumentExtractor(&fakePDF{err: errors.New("xref table broken")})
	_, err := d.Extract(context.Background(), "resume.pdf", []byte("garbage"))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrExtraction)
	assert.Equal(t, "ExtractionError", types.ErrorKind(err))
}

func TestDocumentExtractor_UnsupportedBinary(t *testing.T) {
	d := NewDocumentExtractor(&fakePDF{})
	_, err := d.Extract(context.Background(), "photo", []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrExtraction)
}

func TestDocumentExtractor_InvalidUTF8Text(t *testing.T) {
	d := NewDocumentExtractor(&fakePDF{})
	_, err := d.Extract(context.Background(), "resume.txt", []byte{0xff, 0xfe, 0xfd})
	assert.ErrorIs(t, err, types.ErrExtraction)
}

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDocumentExtractor_Docx(t *testing.T) {
	data := buildDocx(t, `<w:p><w:r><w:t>John Doe</w:t></w:r></w:p><w:p><w:r><w:t>Python</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve"> developer</w:t></w:r></w:p>`)

	d := NewDocumentExtractor(&fakePDF{})
	text, err := d.Extract(context.Background(), "resume.docx", data)
	require.NoError(t, err)
	assert.Equal(t, "John Doe\nPython\t developer", text)
}

func TestDocumentXMLToText_Malformed(t *testing.T) {
	_, err := documentXMLToText("<w:p><w:t>unterminated")
	assert.Error(t, err)
}
