package extract

import (
	"regexp"
	"strings"
)

const (
	// European money token: optional thousands groups and two decimals
	numberExpr = `\b\d+(?:[.,]\d{3})*[.,]\d{2}\b`
	dateExpr   = `\b\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}\b`
	monthExpr  = `(?:ENE|FEB|MAR|ABR|MAY|JUN|JUL|AGO|SEP|OCT|NOV|DIC)\p{L}*`
)

var (
	// two letters, a digit, then 15-19 alphanumerics (CUPS shape)
	supplyIDRe = regexp.MustCompile(`(?i)\b([A-Z]{2}\d[0-9A-Z]{15,19})\b`)

	addressLabelRe     = regexp.MustCompile(`(?i)Dir\.?\s*Suministro[:\s]*([^,\-/\n\r]+)`)
	addressLongLabelRe = regexp.MustCompile(`(?i)(?:Direcci[óo]n\s+de\s+suministro|Supply\s+address)[:\s]*([^,\n\r]+)`)
	genericStreetRe    = regexp.MustCompile(`(?i)\b(?:(?:CALLE|CL|AVDA|AVENIDA|PLAZA|PZA|PASEO|CTRA)[.\s]|C/)\s*[\p{L}0-9 ]+?\d+[^,\-/\n\r]*`)

	amountLabelRe    = regexp.MustCompile(`(?i)\bTOTAL(?:\s+A\s+FACTURAR|\s+TO\s+BE\s+BILLED)?[:\s]*(` + numberExpr + `)`)
	amountCurrencyRe = regexp.MustCompile(`(?i)(` + numberExpr + `)\s*(?:€|EUR\b)`)
	amountBareRe     = regexp.MustCompile(`(` + numberExpr + `)`)

	issueDateRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)FECHA\s*(?:DE\s*)?(?:EMISI[OÓ]N|FACTURA)[:\s]*(` + dateExpr + `)`),
		regexp.MustCompile(`(?i)(?:EMITIDO|EMISI[OÓ]N)[:\s]*(` + dateExpr + `)`),
		regexp.MustCompile(`(?i)FACTURA\s*(?:N[º°O]?\.?[:\s]*[\w\-/]+\s*)?(?:DE\s*)?FECHA[:\s]*(` + dateExpr + `)`),
		regexp.MustCompile(`(?i)(?:ISSUE|INVOICE)\s+DATE[:\s]*(` + dateExpr + `)`),
	}
	anyDateRe = regexp.MustCompile(`\b(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{4})\b`)

	measurePeriodRe = regexp.MustCompile(`(?i)PER[IÍ]ODO\s*DE\s*MEDIDA\s*:[ \t]*([^\n\r]*)`)
	billedPeriodRe  = regexp.MustCompile(`(?i)PER[IÍ]ODO\s*FACTURADO[:\s]*(` + monthExpr + `[^0-9\n]*\d{4}(?:\s*[-–—]\s*` + monthExpr + `[^0-9\n]*\d{4})?)`)
	monthRangeRe    = regexp.MustCompile(`(?i)\b(` + monthExpr + `(?:[^0-9\n]{0,10}\d{4})?\s*[-–—]\s*` + monthExpr + `[^0-9\n]{0,10}\d{4})`)
	dateRangeRe     = regexp.MustCompile(`(?i)(` + dateExpr + `)[^\n]{0,30}?\b(?:AL|A|TO|HASTA)\b[^\n]{0,30}?(` + dateExpr + `)`)

	supplyCodeRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bC\.?\s*ABAST[:.]?\s*(\d{1,6})\b`),
		regexp.MustCompile(`(?i)\bC[OÓ]D(?:IGO)?\.?\s*(?:DE\s+)?ABAST\p{L}*[:.]?\s*(\d{1,6})\b`),
	}
	policyRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bP\.?OLI?Z?A?[:.]?\s*(\d{1,10})\b`),
		regexp.MustCompile(`(?i)\bP[OÓ]LIZA\s*(?:N[º°O]?\.?)?[:.]?\s*(\d{1,10})\b`),
	}

	meterLabelRe      = regexp.MustCompile(`Contador:\s*([A-Z0-9\-]{5,30})`)
	meterUpperLabelRe = regexp.MustCompile(`CONTADOR[:\s]*([A-Z0-9\-]{5,30})`)
	meterTokenRe      = regexp.MustCompile(`\b([A-Z]{1,3}\d[0-9A-Z]{5,19})\b`)

	holderWaterRe = regexp.MustCompile(`(?i)Dir\.?\s*Suministro[:\s]*([^\n\r]+)`)
	holderPowerRe = regexp.MustCompile(`(?i)Nombre[/\s]*Raz[óo]n\s+social[:\s]*([^\n\r]+)`)
	ownersRe      = regexp.MustCompile(`(?i)COM(?:UNIDAD)?\s*(?:DE\s+)?PROP(?:IETARIOS)?\W*`)
)

// primaryStreetRe matches the configured street with an optional street
// type prefix, up to the next separator.
func primaryStreetRe(street string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:\b(?:AVDA|AVENIDA|AV|CALLE|CL|C/)\.?\s*)?\b` +
		regexp.QuoteMeta(strings.TrimSpace(street)) + `\s*\d+[^,\-/\n\r]*`)
}

func hasDigit(s string) (string, bool) {
	return s, strings.ContainsAny(s, "0123456789")
}

// notSupplyID rejects tokens shaped like a supply identifier
func notSupplyID(s string) (string, bool) {
	return s, !supplyIDRe.MatchString(s)
}
