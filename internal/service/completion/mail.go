package completion

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/delivery_code.html
var templatesFS embed.FS

var deliveryCodeTemplate = template.Must(template.ParseFS(templatesFS, "templates/delivery_code.html"))

type deliveryCodeMail struct {
	CustomerName string
	OrderID      int64
	Code         string
	ExpiresIn    time.Duration
}

func deliveryCodeSubject(code string) string {
	return "Delivery code: " + code
}

func renderDeliveryCode(data deliveryCodeMail) (string, error) {
	var buf bytes.Buffer
	if err := deliveryCodeTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render delivery code mail: %w", err)
	}
	return buf.String(), nil
}
