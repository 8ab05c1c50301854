// Package dispatch builds and delivers the courier ("motoboy") request
// for an order. Formatting never fails: missing fields degrade to
// placeholder text so a half-filled order still produces a usable
// message.
package dispatch

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/doceeser/orders-dashboard/internal/orders/domain"
)

const (
	addressMissing = "Endereço não informado"
	fieldMissing   = "-"
)

// FormatBRL renders a money value the way the shop prints it:
// two decimals, comma separator, R$ prefix.
func FormatBRL(d decimal.Decimal) string {
	return "R$ " + strings.Replace(d.StringFixed(2), ".", ",", 1)
}

// FormatMessage renders the delivery request as plain newline-separated
// text. trackingBase is the public site origin for the customer-facing
// tracking link.
func FormatMessage(o domain.Order, trackingBase string) string {
	c := o.Customer

	var b strings.Builder
	b.WriteString("🚚 NOVO PEDIDO\n")
	b.WriteString("Cliente: " + orDash(c.Nome) + "\n")
	b.WriteString("Telefone: " + orDash(c.Telefone) + "\n")
	b.WriteString("Endereço: " + addressLine(c) + "\n")
	if link := mapLink(c); link != "" {
		b.WriteString("Mapa: " + link + "\n")
	}
	b.WriteString("\nItens:\n")
	for _, it := range o.Items {
		b.WriteString(itemLine(it) + "\n")
	}
	b.WriteString("\nTotal: " + FormatBRL(o.Total) + "\n")
	b.WriteString("\nAcompanhar: " + strings.TrimRight(trackingBase, "/") + "/status/" + o.ID)
	return b.String()
}

// DeepLink builds the wa.me URL that opens the courier chat with the
// message prefilled. The text is percent-encoded, newlines included.
func DeepLink(o domain.Order, courierNumber, trackingBase string) string {
	return "https://wa.me/" + courierNumber + "?text=" + url.QueryEscape(FormatMessage(o, trackingBase))
}

func addressLine(c domain.Customer) string {
	if c.Rua == "" {
		return addressMissing
	}
	return fmt.Sprintf("%s, %s - %s", c.Rua, c.Numero, c.Bairro)
}

func mapLink(c domain.Customer) string {
	if c.Latitude == nil || c.Longitude == nil {
		return ""
	}
	return "https://maps.google.com/?q=" +
		strconv.FormatFloat(*c.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(*c.Longitude, 'f', -1, 64)
}

func itemLine(it domain.Item) string {
	line := fmt.Sprintf("%dx %s", it.Qty(), orDash(it.Name))
	if len(it.Toppings) > 0 {
		line += " (+" + strings.Join(it.Toppings, ", ") + ")"
	}
	return line
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return fieldMissing
	}
	return s
}
