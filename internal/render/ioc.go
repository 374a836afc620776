package render

import (
	"fmt"
	"strings"

	"github.com/ppiankov/intelbench/internal/extract"
	"github.com/ppiankov/intelbench/internal/model"
)

// IOCFormat is an indicator list export format
type IOCFormat string

const (
	IOCFormatText IOCFormat = "text"
	IOCFormatCSV  IOCFormat = "csv"
	IOCFormatJSON IOCFormat = "json"
)

// ParseIOCFormat validates an indicator export format name
func ParseIOCFormat(s string) (IOCFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "txt", "":
		return IOCFormatText, nil
	case "csv":
		return IOCFormatCSV, nil
	case "json":
		return IOCFormatJSON, nil
	default:
		return "", fmt.Errorf("unknown IOC format %q (want text, csv or json)", s)
	}
}

// Extension returns the file extension for the format, without the dot
func (f IOCFormat) Extension() string {
	if f == IOCFormatText {
		return "txt"
	}
	return string(f)
}

type iocRecord struct {
	Type  model.IOCType `json:"type"`
	Value string        `json:"value"`
}

// IOCs renders indicators with each value shown live or defanged
func IOCs(iocs []model.ExtractedIOC, format IOCFormat, defanged bool) ([]byte, error) {
	switch format {
	case IOCFormatText:
		var b strings.Builder
		for _, ioc := range iocs {
			b.WriteString(extract.FormatIOC(ioc.Value, ioc.Type, defanged))
			b.WriteByte('\n')
		}
		return []byte(b.String()), nil

	case IOCFormatCSV:
		var b strings.Builder
		b.WriteString("type,value\n")
		for _, ioc := range iocs {
			b.WriteString(csvField(string(ioc.Type)))
			b.WriteByte(',')
			b.WriteString(csvField(extract.FormatIOC(ioc.Value, ioc.Type, defanged)))
			b.WriteByte('\n')
		}
		return []byte(b.String()), nil

	case IOCFormatJSON:
		records := make([]iocRecord, 0, len(iocs))
		for _, ioc := range iocs {
			records = append(records, iocRecord{
				Type:  ioc.Type,
				Value: extract.FormatIOC(ioc.Value, ioc.Type, defanged),
			})
		}
		data, err := marshalIndent(records)
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil

	default:
		return nil, fmt.Errorf("unknown IOC format %q", format)
	}
}

// WriteIOCs renders indicators to path
func WriteIOCs(path string, iocs []model.ExtractedIOC, format IOCFormat, defanged bool) error {
	data, err := IOCs(iocs, format, defanged)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// csvField always quotes, doubling embedded quotes
func csvField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
