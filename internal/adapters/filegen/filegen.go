// Package filegen produces bait files with an embedded tracking reference.
// Opening the file (or following any URL inside it) resolves against the
// server's /track endpoint, activating the beacon. Formats are minimal but
// plausible; byte-exact fidelity to real office formats is out of scope.
package filegen

import (
	"bytes"
	"fmt"
	"strings"
)

// Registry maps file types to encoders and implements ports.FileEncoder.
// Output is deterministic per beacon so repeated downloads of the same bait
// are byte-identical.
type Registry struct {
	serverURL string
}

func NewRegistry(serverURL string) *Registry {
	return &Registry{serverURL: strings.TrimRight(serverURL, "/")}
}

// TypeForFilename infers the bait file type from the requested name.
// Unknown extensions default to an env-style text file: scanners asking for
// odd names still deserve something credential-shaped.
func TypeForFilename(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return "pdf"
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xls"), strings.HasSuffix(lower, ".csv"):
		return "csv"
	default:
		return "env"
	}
}

func (r *Registry) trackURL(beaconID string) string {
	return r.serverURL + "/track/" + beaconID
}

func (r *Registry) Encode(fileType, beaconID string, contextData map[string]string) ([]byte, string, error) {
	switch fileType {
	case "pdf":
		return r.encodePDF(beaconID), "application/pdf", nil
	case "csv":
		return r.encodeCSV(beaconID, contextData), "text/csv", nil
	case "env":
		return r.encodeEnv(beaconID), "text/plain", nil
	default:
		return nil, "", fmt.Errorf("unsupported bait file type %q", fileType)
	}
}

// encodePDF writes a one-page PDF whose page carries a full-page invisible
// link annotation pointing at the tracking URL, so a click anywhere (and
// some preview fetchers) fires the beacon.
func (r *Registry) encodePDF(beaconID string) []byte {
	stream := "BT /F1 18 Tf 72 720 Td (CONFIDENTIAL - Internal Document) Tj ET\n" +
		"BT /F1 11 Tf 72 690 Td (Q4 Financial Report) Tj ET\n" +
		"BT /F1 10 Tf 72 660 Td (Document ID: " + beaconID[:8] + ") Tj ET\n" +
		"BT /F1 10 Tf 72 640 Td (Revenue: \\$4,234,567  Net Profit: \\$2,111,111) Tj ET\n"

	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R " +
			"/Resources << /Font << /F1 5 0 R >> >> /Annots [6 0 R] >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		"<< /Type /Annot /Subtype /Link /Rect [0 0 612 792] /Border [0 0 0] " +
			"/A << /Type /Action /S /URI /URI (" + r.trackURL(beaconID) + ") >> >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

// encodeCSV emits an employee-directory export. The dashboard_url column
// carries the tracking reference; spreadsheet apps render it clickable.
func (r *Registry) encodeCSV(beaconID string, contextData map[string]string) []byte {
	var buf bytes.Buffer
	buf.WriteString("employee_id,name,email,department,salary,dashboard_url\n")
	rows := []struct {
		id, name, email, dept, salary string
	}{
		{"1042", "Sarah Chen", "s.chen@corporate.internal", "Engineering", "142000"},
		{"1057", "Marcus Webb", "m.webb@corporate.internal", "Finance", "118000"},
		{"1061", "Priya Nair", "p.nair@corporate.internal", "Security", "131000"},
		{"1093", "Tom Aldridge", "t.aldridge@corporate.internal", "Operations", "97000"},
	}
	for _, row := range rows {
		fmt.Fprintf(&buf, "%s,%s,%s,%s,%s,%s?ref=%s\n",
			row.id, row.name, row.email, row.dept, row.salary, r.trackURL(beaconID), row.id)
	}
	if src, ok := contextData["source"]; ok {
		fmt.Fprintf(&buf, "# exported from %s\n", src)
	}
	return buf.Bytes()
}

// encodeEnv emits a production-looking dotenv file. The health-check URL is
// the beacon: anything that curls the listed endpoints phones home.
func (r *Registry) encodeEnv(beaconID string) []byte {
	var buf bytes.Buffer
	buf.WriteString("# Production Environment Configuration\n")
	buf.WriteString("# DO NOT COMMIT TO VERSION CONTROL\n\n")
	buf.WriteString("DB_HOST=db-prod-3.internal.corporate.com\n")
	buf.WriteString("DB_PORT=5432\n")
	buf.WriteString("DB_USER=app_svc\n")
	buf.WriteString("DB_PASSWORD=Pr0d-" + beaconID[:6] + "!x\n")
	buf.WriteString("REDIS_URL=redis://cache-prod-1.internal.corporate.com:6379/0\n")
	buf.WriteString("AWS_ACCESS_KEY_ID=AKIA" + strings.ToUpper(strings.ReplaceAll(beaconID[:12], "-", "Q")) + "\n")
	buf.WriteString("AWS_SECRET_ACCESS_KEY=" + beaconID + "\n")
	buf.WriteString("HEALTHCHECK_URL=" + r.trackURL(beaconID) + "\n")
	return buf.Bytes()
}
