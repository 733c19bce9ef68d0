// Package i18n holds the locale dictionaries used by transactional emails.
// Dictionaries are embedded YAML files, one per locale, with English as the
// fallback for unknown locales.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// DefaultLocale is used whenever a requested locale has no dictionary.
const DefaultLocale = "en"

// OrderConfirmationStrings are the translated fragments of the order
// confirmation email.
type OrderConfirmationStrings struct {
	Subject         string `yaml:"subject"`
	Greeting        string `yaml:"greeting"`
	Message         string `yaml:"message"`
	OrderDetails    string `yaml:"order_details"`
	OrderNumber     string `yaml:"order_number"`
	OrderDate       string `yaml:"order_date"`
	TotalAmount     string `yaml:"total_amount"`
	Items           string `yaml:"items"`
	Product         string `yaml:"product"`
	Quantity        string `yaml:"quantity"`
	Price           string `yaml:"price"`
	ShippingAddress string `yaml:"shipping_address"`
	Footer          string `yaml:"footer"`
	ContactInfo     string `yaml:"contact_info"`
}

// OrderShippedStrings are the translated fragments of the shipping
// notification email.
type OrderShippedStrings struct {
	Subject      string `yaml:"subject"`
	Greeting     string `yaml:"greeting"`
	Message      string `yaml:"message"`
	OrderDetails string `yaml:"order_details"`
	OrderNumber  string `yaml:"order_number"`
	OrderDate    string `yaml:"order_date"`
	Items        string `yaml:"items"`
	TrackingInfo string `yaml:"tracking_info"`
	TrackPackage string `yaml:"track_package"`
	Footer       string `yaml:"footer"`
	ContactInfo  string `yaml:"contact_info"`
}

// ContactStrings are the translated fragments of the contact-form emails,
// both the team notification and the submitter confirmation.
type ContactStrings struct {
	Subject              string `yaml:"subject"`
	ContactDetails       string `yaml:"contact_details"`
	Name                 string `yaml:"name"`
	Email                string `yaml:"email"`
	SubjectLabel         string `yaml:"subject_label"`
	OrderID              string `yaml:"order_id"`
	MessageLabel         string `yaml:"message_label"`
	Footer               string `yaml:"footer"`
	ConfirmationSubject  string `yaml:"confirmation_subject"`
	ConfirmationGreeting string `yaml:"confirmation_greeting"`
	ConfirmationMessage  string `yaml:"confirmation_message"`
	YourMessage          string `yaml:"your_message"`
	ConfirmationFooter   string `yaml:"confirmation_footer"`
	SuccessMessage       string `yaml:"success_message"`
}

// Dictionary is the full string set for one locale.
type Dictionary struct {
	Locale            string                   `yaml:"locale"`
	OrderConfirmation OrderConfirmationStrings `yaml:"order_confirmation"`
	OrderShipped      OrderShippedStrings      `yaml:"order_shipped"`
	Contact           ContactStrings           `yaml:"contact"`
	OrderStatus       map[string]string        `yaml:"order_status"`
}

// Catalog holds every loaded locale dictionary.
type Catalog struct {
	locales map[string]*Dictionary
}

// Load parses all embedded locale files. It fails if the default locale is
// missing, since every lookup may fall back to it.
func Load() (*Catalog, error) {
	entries, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, fmt.Errorf("failed to list locale files: %w", err)
	}

	locales := make(map[string]*Dictionary, len(entries))
	for _, entry := range entries {
		raw, err := localeFS.ReadFile("locales/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read locale file %s: %w", entry.Name(), err)
		}

		var dict Dictionary
		if err := yaml.Unmarshal(raw, &dict); err != nil {
			return nil, fmt.Errorf("failed to parse locale file %s: %w", entry.Name(), err)
		}
		if dict.Locale == "" {
			return nil, fmt.Errorf("locale file %s is missing the locale field", entry.Name())
		}
		locales[dict.Locale] = &dict
	}

	if _, ok := locales[DefaultLocale]; !ok {
		return nil, fmt.Errorf("default locale %q has no dictionary", DefaultLocale)
	}

	return &Catalog{locales: locales}, nil
}

// Supported reports whether locale has its own dictionary.
func (c *Catalog) Supported(locale string) bool {
	_, ok := c.locales[Normalize(locale)]
	return ok
}

// Dictionary returns the dictionary for locale, falling back to English.
func (c *Catalog) Dictionary(locale string) *Dictionary {
	if dict, ok := c.locales[Normalize(locale)]; ok {
		return dict
	}
	return c.locales[DefaultLocale]
}

// StatusLabel translates an order status, returning the raw status when no
// translation exists.
func (c *Catalog) StatusLabel(locale, status string) string {
	dict := c.Dictionary(locale)
	if label, ok := dict.OrderStatus[status]; ok {
		return label
	}
	if dict = c.locales[DefaultLocale]; dict != nil {
		if label, ok := dict.OrderStatus[status]; ok {
			return label
		}
	}
	return status
}

// Normalize lowercases a locale and strips any region subtag ("pt-PT" -> "pt").
func Normalize(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if idx := strings.IndexAny(locale, "-_"); idx > 0 {
		locale = locale[:idx]
	}
	return locale
}
