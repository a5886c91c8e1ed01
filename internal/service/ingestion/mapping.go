// Package ingestion parses uploaded spreadsheets into order rows and
// provides the export, status, and clear operations around the store.
package ingestion

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"ordersense/internal/domain"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9_]+`)

// deaccent strips combining marks so Czech and Slovak headers fold to
// their ASCII alias forms ("Číslo objednávky" -> "cislo objednavky").
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeHeader folds diacritics, lowercases a source column header,
// and squeezes everything that is not a-z, 0-9, or underscore into
// single underscores, the same way the upload flow always has.
func normalizeHeader(h string) string {
	folded, _, err := transform.String(deaccent, h)
	if err != nil {
		folded = h
	}
	n := strings.ToLower(strings.TrimSpace(folded))
	n = nonAlnum.ReplaceAllString(n, "_")
	n = strings.Trim(n, "_")
	return n
}

// headerAliases maps normalized source headers to order columns. Export
// formats differ per shop; unmapped headers end up in raw_data.
var headerAliases = map[string]string{
	"code":             "code",
	"objednavka":       "code",
	"cislo_objednavky": "code",
	"order_number":     "code",

	"order_date":       "order_date",
	"datum":            "order_date",
	"datum_objednavky": "order_date",
	"date":             "order_date",

	"status": "status",
	"stav":   "status",

	"currency": "currency",
	"mena":     "currency",

	"email":  "email",
	"e_mail": "email",

	"phone":   "phone",
	"telefon": "phone",

	"bill_full_name":   "bill_full_name",
	"jmeno_a_prijmeni": "bill_full_name",
	"fakturacni_jmeno": "bill_full_name",

	"bill_company": "bill_company",
	"firma":        "bill_company",

	"bill_street":      "bill_street",
	"ulice":            "bill_street",
	"fakturacni_ulice": "bill_street",

	"bill_city":        "bill_city",
	"mesto":            "bill_city",
	"fakturacni_mesto": "bill_city",

	"bill_zip": "bill_zip",
	"psc":      "bill_zip",

	"bill_country": "bill_country",
	"zeme":         "bill_country",

	"vat_id": "vat_id",
	"dic":    "vat_id",

	"delivery_full_name": "delivery_full_name",
	"dodaci_jmeno":       "delivery_full_name",
	"delivery_street":    "delivery_street",
	"dodaci_ulice":       "delivery_street",
	"delivery_city":      "delivery_city",
	"dodaci_mesto":       "delivery_city",
	"delivery_zip":       "delivery_zip",
	"dodaci_psc":         "delivery_zip",
	"delivery_country":   "delivery_country",
	"dodaci_zeme":        "delivery_country",

	"total_price":  "total_price",
	"cena_celkem":  "total_price",
	"celkova_cena": "total_price",
	"total":        "total_price",

	"shipping_price": "shipping_price",
	"postovne":       "shipping_price",
	"cena_dopravy":   "shipping_price",

	"payment_method": "payment_method",
	"platba":         "payment_method",
	"zpusob_platby":  "payment_method",

	"shipping_method": "shipping_method",
	"doprava":         "shipping_method",
	"zpusob_dopravy":  "shipping_method",

	"notes":    "notes",
	"poznamka": "notes",
}

// setColumn assigns a mapped cell value to the order field belonging to
// the column. Returns false when the column is not a known order field.
func setColumn(o *domain.Order, column, value string) bool {
	switch column {
	case "code":
		o.Code = value
	case "order_date":
		o.OrderDate = value
	case "status":
		o.Status = value
	case "currency":
		o.Currency = value
	case "email":
		o.Email = value
	case "phone":
		o.Phone = value
	case "bill_full_name":
		o.BillFullName = value
	case "bill_company":
		o.BillCompany = value
	case "bill_street":
		o.BillStreet = value
	case "bill_city":
		o.BillCity = value
	case "bill_zip":
		o.BillZip = value
	case "bill_country":
		o.BillCountry = value
	case "vat_id":
		o.VatID = value
	case "delivery_full_name":
		o.DeliveryFullName = value
	case "delivery_street":
		o.DeliveryStreet = value
	case "delivery_city":
		o.DeliveryCity = value
	case "delivery_zip":
		o.DeliveryZip = value
	case "delivery_country":
		o.DeliveryCountry = value
	case "total_price":
		o.TotalPrice = value
	case "shipping_price":
		o.ShippingPrice = value
	case "payment_method":
		o.PaymentMethod = value
	case "shipping_method":
		o.ShippingMethod = value
	case "notes":
		o.Notes = value
	default:
		return false
	}
	return true
}
