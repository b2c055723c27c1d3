// Package corpcode handles the Open DART bulk corp-code archive: extracting
// CORPCODE.xml from the downloaded ZIP, converting it to a JSON index, and
// searching the roughly hundred thousand registered companies in memory.
package corpcode

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Company is one entry of the corp-code enumeration. StockCode is empty for
// unlisted companies (the XML ships a blank-padded element there).
type Company struct {
	CorpCode    string `json:"corp_code"    xml:"corp_code"`
	CorpName    string `json:"corp_name"    xml:"corp_name"`
	CorpEngName string `json:"corp_eng_name" xml:"corp_eng_name"`
	StockCode   string `json:"stock_code"   xml:"stock_code"`
	ModifyDate  string `json:"modify_date"  xml:"modify_date"`
}

// Listed reports whether the company has a KRX stock code.
func (c Company) Listed() bool { return c.StockCode != "" }

// xmlResult mirrors the CORPCODE.xml document: a <result> root holding one
// <list> element per company.
type xmlResult struct {
	XMLName xml.Name  `xml:"result"`
	List    []Company `xml:"list"`
}

// ParseXML decodes a CORPCODE.xml document. Whitespace around element text
// is trimmed; a blank stock code becomes the empty string.
func ParseXML(r io.Reader) ([]Company, error) {
	var doc xmlResult
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("corpcode: parse XML: %w", err)
	}

	companies := doc.List
	for i := range companies {
		companies[i].CorpCode = strings.TrimSpace(companies[i].CorpCode)
		companies[i].CorpName = strings.TrimSpace(companies[i].CorpName)
		companies[i].CorpEngName = strings.TrimSpace(companies[i].CorpEngName)
		companies[i].StockCode = strings.TrimSpace(companies[i].StockCode)
		companies[i].ModifyDate = strings.TrimSpace(companies[i].ModifyDate)
	}
	return companies, nil
}

// ExtractArchive opens the downloaded ZIP and parses the CORPCODE.xml
// inside. The archive is read fully from disk; nothing is streamed.
func ExtractArchive(zipPath string) ([]Company, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("corpcode: open archive %s: %w", zipPath, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if !strings.EqualFold(f.Name, "CORPCODE.xml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("corpcode: open %s in archive: %w", f.Name, err)
		}
		defer rc.Close()
		return ParseXML(rc)
	}

	return nil, fmt.Errorf("corpcode: CORPCODE.xml not found in %s", zipPath)
}

// CountListed returns the number of companies carrying a stock code.
func CountListed(companies []Company) int {
	n := 0
	for _, c := range companies {
		if c.Listed() {
			n++
		}
	}
	return n
}
