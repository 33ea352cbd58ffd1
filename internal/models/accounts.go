package models

import "strings"

// LedgerAccounts is the chart of accounts (Spanish PGC groups 4, 6 and 7)
// used to describe ledger account codes.
var LedgerAccounts = map[string]string{
	"410":  "Acreedores por prestaciones de servicios",
	"4100": "Proveedores",
	"4109": "Proveedores, facturas pendientes de recibir o formalizar",
	"411":  "Acreedores, efectos comerciales a pagar",
	"419":  "Acreedores por operaciones en común",
	"430":  "Clientes",
	"440":  "Deudores",
	"4400": "Deudores varios",
	"465":  "Remuneraciones pendientes de pago",
	"4709": "Hacienda Pública, IVA repercutido",
	"4721": "Hacienda Pública, IVA soportado",
	"473":  "Hacienda Pública, retenciones y pagos a cuenta",
	"475":  "Hacienda Pública, acreedor por conceptos fiscales",
	"4751": "Hacienda Pública, acreedor por retenciones practicadas",
	"476":  "Organismos de la Seguridad Social, acreedores",
	"600":  "Compras de mercaderías",
	"602":  "Compras de otros aprovisionamientos",
	"607":  "Trabajos realizados por otras empresas",
	"621":  "Arrendamientos y cánones",
	"622":  "Reparaciones y conservación",
	"623":  "Servicios de profesionales independientes",
	"624":  "Transportes",
	"625":  "Primas de seguros",
	"626":  "Servicios bancarios y similares",
	"627":  "Publicidad, propaganda y relaciones públicas",
	"628":  "Suministros",
	"629":  "Otros servicios",
	"631":  "Otros tributos",
	"640":  "Sueldos y salarios",
	"642":  "Seguridad Social a cargo de la empresa",
	"659":  "Otras pérdidas en gestión corriente",
	"662":  "Intereses de deudas",
	"669":  "Otros gastos financieros",
	"678":  "Gastos excepcionales",
	"681":  "Amortización del inmovilizado material",
	"705":  "Prestaciones de servicios",
	"752":  "Ingresos por arrendamientos",
	"769":  "Otros ingresos financieros",
}

// AccountDescription returns the description of code, falling back to the
// longest known prefix so that sub-accounts like 6281111 resolve to 628.
func AccountDescription(code string) (string, bool) {
	code = strings.TrimSpace(code)
	for n := len(code); n >= 3; n-- {
		if desc, ok := LedgerAccounts[code[:n]]; ok {
			return desc, true
		}
	}
	return "", false
}
