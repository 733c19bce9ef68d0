// Package email provides email templates.
package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/atelierluz/storefront/internal/i18n"
)

// OrderItem is a single rendered line of an order email.
type OrderItem struct {
	Name     string
	Quantity int
	Price    string
}

// OrderInfo contains all the information needed for order email templates.
// Prices arrive preformatted so the templates stay dumb.
type OrderInfo struct {
	CustomerName  string
	CustomerEmail string
	OrderNumber   string
	OrderDate     string
	Total         string
	Items         []OrderItem
	AddressLines  []string
	TrackingLink  string
}

// ContactInfo contains a contact-form submission for the notification and
// confirmation emails.
type ContactInfo struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Subject   string
	Message   string
	OrderID   string
}

// Renderer renders the transactional email templates. HTML bodies go through
// html/template so user-supplied fields are escaped.
type Renderer struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

// NewRenderer parses the built-in templates.
func NewRenderer() (*Renderer, error) {
	html := htmltemplate.New("email")
	text := texttemplate.New("email")

	htmlTemplates := map[string]string{
		"order_confirmation":   orderConfirmationHTML,
		"order_shipped":        orderShippedHTML,
		"contact_notification": contactNotificationHTML,
		"contact_confirmation": contactConfirmationHTML,
	}
	textTemplates := map[string]string{
		"order_confirmation":   orderConfirmationText,
		"order_shipped":        orderShippedText,
		"contact_notification": contactNotificationText,
		"contact_confirmation": contactConfirmationText,
	}

	for name, tmpl := range htmlTemplates {
		if _, err := html.New(name).Parse(tmpl); err != nil {
			return nil, fmt.Errorf("failed to parse HTML template %s: %w", name, err)
		}
	}
	for name, tmpl := range textTemplates {
		if _, err := text.New(name).Parse(tmpl); err != nil {
			return nil, fmt.Errorf("failed to parse text template %s: %w", name, err)
		}
	}

	return &Renderer{html: html, text: text}, nil
}

type orderEmailData struct {
	T        *i18n.Dictionary
	Info     *OrderInfo
	Greeting string
}

type contactEmailData struct {
	T        *i18n.ContactStrings
	Info     *ContactInfo
	Greeting string
}

// RenderOrderConfirmation builds the order confirmation email for the order's
// locale.
func (r *Renderer) RenderOrderConfirmation(dict *i18n.Dictionary, info *OrderInfo) (*Email, error) {
	data := &orderEmailData{
		T:        dict,
		Info:     info,
		Greeting: strings.ReplaceAll(dict.OrderConfirmation.Greeting, "{name}", info.CustomerName),
	}
	return r.render("order_confirmation", info.CustomerEmail, dict.OrderConfirmation.Subject, data)
}

// RenderOrderShipped builds the shipping notification email.
func (r *Renderer) RenderOrderShipped(dict *i18n.Dictionary, info *OrderInfo) (*Email, error) {
	data := &orderEmailData{
		T:        dict,
		Info:     info,
		Greeting: strings.ReplaceAll(dict.OrderShipped.Greeting, "{name}", info.CustomerName),
	}
	return r.render("order_shipped", info.CustomerEmail, dict.OrderShipped.Subject, data)
}

// RenderContactNotification builds the team notification for a contact-form
// submission. Reply-to points at the submitter so support can answer
// directly.
func (r *Renderer) RenderContactNotification(dict *i18n.Dictionary, info *ContactInfo, to string) (*Email, error) {
	data := &contactEmailData{
		T:    &dict.Contact,
		Info: info,
	}
	subject := fmt.Sprintf("%s - %s", dict.Contact.Subject, info.Subject)
	email, err := r.render("contact_notification", to, subject, data)
	if err != nil {
		return nil, err
	}
	email.ReplyTo = info.Email
	return email, nil
}

// RenderContactConfirmation builds the confirmation sent back to the
// submitter.
func (r *Renderer) RenderContactConfirmation(dict *i18n.Dictionary, info *ContactInfo) (*Email, error) {
	data := &contactEmailData{
		T:        &dict.Contact,
		Info:     info,
		Greeting: strings.ReplaceAll(dict.Contact.ConfirmationGreeting, "{name}", info.FirstName),
	}
	return r.render("contact_confirmation", info.Email, dict.Contact.ConfirmationSubject, data)
}

func (r *Renderer) render(name, to, subject string, data any) (*Email, error) {
	var htmlBuf, textBuf bytes.Buffer

	if err := r.html.ExecuteTemplate(&htmlBuf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}
	if err := r.text.ExecuteTemplate(&textBuf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render text template: %w", err)
	}

	return &Email{
		To:      to,
		Subject: subject,
		Text:    textBuf.String(),
		HTML:    htmlBuf.String(),
	}, nil
}

const orderConfirmationText = `{{.T.OrderConfirmation.Subject}}

{{.Greeting}}

{{.T.OrderConfirmation.Message}}

{{.T.OrderConfirmation.OrderNumber}}: {{.Info.OrderNumber}}
{{.T.OrderConfirmation.OrderDate}}: {{.Info.OrderDate}}
{{.T.OrderConfirmation.TotalAmount}}: {{.Info.Total}}

{{.T.OrderConfirmation.Items}}:
{{range .Info.Items}}- {{.Name}} x{{.Quantity}} - {{.Price}}
{{end}}
{{.T.OrderConfirmation.ShippingAddress}}:
{{range .Info.AddressLines}}{{.}}
{{end}}
{{.T.OrderConfirmation.Footer}}

{{.T.OrderConfirmation.ContactInfo}}
`

const orderConfirmationHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.T.OrderConfirmation.Subject}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="color: #2c3e50;">{{.T.OrderConfirmation.Subject}}</h1>

    <p>{{.Greeting}}</p>

    <p>{{.T.OrderConfirmation.Message}}</p>

    <div style="background: #f8f9fa; padding: 20px; border-radius: 5px; margin: 20px 0;">
      <h3>{{.T.OrderConfirmation.OrderDetails}}</h3>
      <p><strong>{{.T.OrderConfirmation.OrderNumber}}:</strong> {{.Info.OrderNumber}}</p>
      <p><strong>{{.T.OrderConfirmation.OrderDate}}:</strong> {{.Info.OrderDate}}</p>
      <p><strong>{{.T.OrderConfirmation.TotalAmount}}:</strong> {{.Info.Total}}</p>
    </div>

    <h3>{{.T.OrderConfirmation.Items}}</h3>
    <table style="width: 100%; border-collapse: collapse;">
      <thead>
        <tr style="background: #f8f9fa;">
          <th style="padding: 10px; text-align: left;">{{.T.OrderConfirmation.Product}}</th>
          <th style="padding: 10px; text-align: right;">{{.T.OrderConfirmation.Price}}</th>
        </tr>
      </thead>
      <tbody>
        {{range .Info.Items}}
        <tr>
          <td style="padding: 10px; border-bottom: 1px solid #eee;">
            <strong>{{.Name}}</strong><br>
            <small>{{$.T.OrderConfirmation.Quantity}}: {{.Quantity}}</small>
          </td>
          <td style="padding: 10px; border-bottom: 1px solid #eee; text-align: right;">{{.Price}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>

    <h3>{{.T.OrderConfirmation.ShippingAddress}}</h3>
    {{range .Info.AddressLines}}<p>{{.}}</p>
    {{end}}
    <p>{{.T.OrderConfirmation.Footer}}</p>

    <p style="margin-top: 30px; font-size: 12px; color: #666;">{{.T.OrderConfirmation.ContactInfo}}</p>
  </div>
</body>
</html>
`

const orderShippedText = `{{.T.OrderShipped.Subject}}

{{.Greeting}}

{{.T.OrderShipped.Message}}

{{.T.OrderShipped.OrderNumber}}: {{.Info.OrderNumber}}
{{.T.OrderShipped.OrderDate}}: {{.Info.OrderDate}}

{{.T.OrderShipped.Items}}:
{{range .Info.Items}}- {{.Name}} x{{.Quantity}}
{{end}}
{{if .Info.TrackingLink}}{{.T.OrderShipped.TrackPackage}}: {{.Info.TrackingLink}}
{{end}}
{{.T.OrderShipped.Footer}}

{{.T.OrderShipped.ContactInfo}}
`

const orderShippedHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.T.OrderShipped.Subject}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="color: #27ae60;">{{.T.OrderShipped.Subject}}</h1>

    <p>{{.Greeting}}</p>

    <p>{{.T.OrderShipped.Message}}</p>

    <div style="background: #f8f9fa; padding: 20px; border-radius: 5px; margin: 20px 0;">
      <h3>{{.T.OrderShipped.OrderDetails}}</h3>
      <p><strong>{{.T.OrderShipped.OrderNumber}}:</strong> {{.Info.OrderNumber}}</p>
      <p><strong>{{.T.OrderShipped.OrderDate}}:</strong> {{.Info.OrderDate}}</p>
    </div>

    <h3>{{.T.OrderShipped.Items}}</h3>
    <table style="width: 100%; border-collapse: collapse;">
      <tbody>
        {{range .Info.Items}}
        <tr>
          <td style="padding: 10px; border-bottom: 1px solid #eee;">
            <strong>{{.Name}}</strong><br>
            <small>x{{.Quantity}}</small>
          </td>
        </tr>
        {{end}}
      </tbody>
    </table>

    {{if .Info.TrackingLink}}
    <div style="background: #e8f5e8; padding: 20px; border-radius: 5px; margin: 20px 0;">
      <h3>{{.T.OrderShipped.TrackingInfo}}</h3>
      <p><a href="{{.Info.TrackingLink}}" style="color: #27ae60; text-decoration: none;">{{.T.OrderShipped.TrackPackage}}</a></p>
    </div>
    {{end}}

    <p>{{.T.OrderShipped.Footer}}</p>

    <p style="margin-top: 30px; font-size: 12px; color: #666;">{{.T.OrderShipped.ContactInfo}}</p>
  </div>
</body>
</html>
`

const contactNotificationText = `{{.T.Subject}}

{{.T.ContactDetails}}
{{.T.Name}}: {{.Info.FirstName}} {{.Info.LastName}}
{{.T.Email}}: {{.Info.Email}}
{{.T.SubjectLabel}}: {{.Info.Subject}}
{{if .Info.OrderID}}{{.T.OrderID}}: {{.Info.OrderID}}
{{end}}
{{.T.MessageLabel}}:
{{.Info.Message}}

{{.T.Footer}}
`

const contactNotificationHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.T.Subject}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="color: #2c3e50;">{{.T.Subject}}</h1>

    <div style="background: #f8f9fa; padding: 20px; border-radius: 5px; margin: 20px 0;">
      <h3>{{.T.ContactDetails}}</h3>
      <p><strong>{{.T.Name}}:</strong> {{.Info.FirstName}} {{.Info.LastName}}</p>
      <p><strong>{{.T.Email}}:</strong> {{.Info.Email}}</p>
      <p><strong>{{.T.SubjectLabel}}:</strong> {{.Info.Subject}}</p>
      {{if .Info.OrderID}}<p><strong>{{.T.OrderID}}:</strong> {{.Info.OrderID}}</p>{{end}}
    </div>

    <h3>{{.T.MessageLabel}}</h3>
    <div style="background: #fff; padding: 20px; border: 1px solid #ddd; border-radius: 5px; margin: 20px 0;">
      <p style="white-space: pre-wrap;">{{.Info.Message}}</p>
    </div>

    <div style="margin-top: 30px; padding: 20px; background: #f8f9fa; border-radius: 5px;">
      <p style="margin: 0; font-size: 14px; color: #666;">{{.T.Footer}}</p>
    </div>
  </div>
</body>
</html>
`

const contactConfirmationText = `{{.T.ConfirmationSubject}}

{{.Greeting}}

{{.T.ConfirmationMessage}}

{{.T.YourMessage}}
{{.T.SubjectLabel}}: {{.Info.Subject}}
{{if .Info.OrderID}}{{.T.OrderID}}: {{.Info.OrderID}}
{{end}}
{{.T.MessageLabel}}:
{{.Info.Message}}

{{.T.ConfirmationFooter}}
`

const contactConfirmationHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.T.ConfirmationSubject}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="color: #2c3e50;">{{.T.ConfirmationSubject}}</h1>

    <p>{{.Greeting}}</p>

    <p>{{.T.ConfirmationMessage}}</p>

    <div style="background: #f8f9fa; padding: 20px; border-radius: 5px; margin: 20px 0;">
      <h3>{{.T.YourMessage}}</h3>
      <p><strong>{{.T.SubjectLabel}}:</strong> {{.Info.Subject}}</p>
      {{if .Info.OrderID}}<p><strong>{{.T.OrderID}}:</strong> {{.Info.OrderID}}</p>{{end}}
      <p><strong>{{.T.MessageLabel}}:</strong></p>
      <div style="background: #fff; padding: 15px; border: 1px solid #ddd; border-radius: 5px; margin: 10px 0;">
        <p style="white-space: pre-wrap;">{{.Info.Message}}</p>
      </div>
    </div>

    <p>{{.T.ConfirmationFooter}}</p>
  </div>
</body>
</html>
`
