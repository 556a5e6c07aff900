// Package pdftest builds tiny valid PDFs in memory so extraction code can be
// tested without external fixture files.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// MinimalPDF returns a one-object-per-page PDF with the given page texts,
// one page per argument, each rendered in Helvetica at the top of a US
// Letter page.
func MinimalPDF(pageTexts ...string) []byte {
	return build(nil, pageTexts)
}

// MinimalPDFWithInfo is MinimalPDF with a document information dictionary.
// Recognized info keys: Title, Author, Creator, Producer, CreationDate,
// ModDate.
func MinimalPDFWithInfo(info map[string]string, pageTexts ...string) []byte {
	return build(info, pageTexts)
}

// Object layout: 1 catalog, 2 page tree, 3 font, then a page/content object
// pair per page, finally the optional info dict.
func build(info map[string]string, pageTexts []string) []byte {
	var buf bytes.Buffer
	var offsets []int

	// addObj numbers objects 1..n in insertion order
	addObj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	n := len(pageTexts)
	kids := make([]string, n)
	for i := range pageTexts {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	addObj("<< /Type /Catalog /Pages 2 0 R >>")
	addObj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	addObj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	for i, text := range pageTexts {
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", escapeString(text))
		addObj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		addObj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	infoNum := 0
	if len(info) > 0 {
		var sb strings.Builder
		sb.WriteString("<<")
		for _, key := range []string{"Title", "Author", "Creator", "Producer", "CreationDate", "ModDate"} {
			if v, ok := info[key]; ok {
				fmt.Fprintf(&sb, " /%s (%s)", key, escapeString(v))
			}
		}
		sb.WriteString(" >>")
		addObj(sb.String())
		infoNum = len(offsets)
	}

	xrefOff := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R", len(offsets)+1)
	if infoNum > 0 {
		fmt.Fprintf(&buf, " /Info %d 0 R", infoNum)
	}
	buf.WriteString(" >>\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefOff)

	return buf.Bytes()
}

// escapeString escapes characters with special meaning in PDF literal
// strings.
func escapeString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(s)
}
