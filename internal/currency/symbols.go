// Package currency maps ISO 4217 codes to display symbols and formats
// amounts the way the finance screens show them.
package currency

import "strings"

// Default is the reporting currency of the company ledger.
const Default = "TRY"

var symbols = map[string]string{
	"AED": "د.إ",
	"AFN": "؋",
	"ALL": "L",
	"AMD": "֏",
	"ANG": "ƒ",
	"AOA": "Kz",
	"ARS": "$",
	"AUD": "A$",
	"AWG": "ƒ",
	"AZN": "₼",
	"BAM": "KM",
	"BBD": "Bds$",
	"BDT": "৳",
	"BGN": "лв",
	"BHD": ".د.ب",
	"BIF": "FBu",
	"BMD": "$",
	"BND": "B$",
	"BOB": "Bs.",
	"BRL": "R$",
	"BSD": "B$",
	"BTN": "Nu.",
	"BWP": "P",
	"BYN": "Br",
	"BZD": "BZ$",
	"CAD": "C$",
	"CDF": "FC",
	"CHF": "CHF",
	"CLP": "$",
	"CNY": "¥",
	"COP": "$",
	"CRC": "₡",
	"CUP": "₱",
	"CVE": "$",
	"CZK": "Kč",
	"DJF": "Fdj",
	"DKK": "kr",
	"DOP": "RD$",
	"DZD": "د.ج",
	"EGP": "E£",
	"ERN": "Nfk",
	"ETB": "Br",
	"EUR": "€",
	"FJD": "FJ$",
	"FKP": "£",
	"GBP": "£",
	"GEL": "₾",
	"GHS": "₵",
	"GIP": "£",
	"GMD": "D",
	"GNF": "FG",
	"GTQ": "Q",
	"GYD": "G$",
	"HKD": "HK$",
	"HNL": "L",
	"HRK": "kn",
	"HTG": "G",
	"HUF": "Ft",
	"IDR": "Rp",
	"ILS": "₪",
	"INR": "₹",
	"IQD": "ع.د",
	"IRR": "﷼",
	"ISK": "kr",
	"JMD": "J$",
	"JOD": "د.ا",
	"JPY": "¥",
	"KES": "KSh",
	"KGS": "сом",
	"KHR": "៛",
	"KMF": "CF",
	"KPW": "₩",
	"KRW": "₩",
	"KWD": "د.ك",
	"KYD": "CI$",
	"KZT": "₸",
	"LAK": "₭",
	"LBP": "ل.ل",
	"LKR": "Rs",
	"LRD": "L$",
	"LSL": "L",
	"LYD": "ل.د",
	"MAD": "د.م.",
	"MDL": "L",
	"MGA": "Ar",
	"MKD": "ден",
	"MMK": "K",
	"MNT": "₮",
	"MOP": "MOP$",
	"MRU": "UM",
	"MUR": "₨",
	"MVR": "Rf",
	"MWK": "MK",
	"MXN": "Mex$",
	"MYR": "RM",
	"MZN": "MT",
	"NAD": "N$",
	"NGN": "₦",
	"NIO": "C$",
	"NOK": "kr",
	"NPR": "₨",
	"NZD": "NZ$",
	"OMR": "ر.ع.",
	"PAB": "B/.",
	"PEN": "S/",
	"PGK": "K",
	"PHP": "₱",
	"PKR": "₨",
	"PLN": "zł",
	"PYG": "₲",
	"QAR": "ر.ق",
	"RON": "lei",
	"RSD": "дин.",
	"RUB": "₽",
	"RWF": "FRw",
	"SAR": "﷼",
	"SBD": "SI$",
	"SCR": "₨",
	"SDG": "ج.س.",
	"SEK": "kr",
	"SGD": "S$",
	"SHP": "£",
	"SLE": "Le",
	"SOS": "Sh",
	"SRD": "$",
	"SSP": "£",
	"STN": "Db",
	"SYP": "£S",
	"SZL": "E",
	"THB": "฿",
	"TJS": "SM",
	"TMT": "m",
	"TND": "د.ت",
	"TOP": "T$",
	"TRY": "₺",
	"TTD": "TT$",
	"TWD": "NT$",
	"TZS": "TSh",
	"UAH": "₴",
	"UGX": "USh",
	"USD": "$",
	"UYU": "$U",
	"UZS": "so'm",
	"VES": "Bs.S",
	"VND": "₫",
	"VUV": "VT",
	"WST": "WS$",
	"XAF": "FCFA",
	"XCD": "EC$",
	"XOF": "CFA",
	"XPF": "₣",
	"YER": "﷼",
	"ZAR": "R",
	"ZMW": "ZK",
	"ZWL": "Z$",
}

// Symbol returns the display symbol for an ISO code. Unknown codes are
// returned unchanged so the screen still shows something meaningful.
func Symbol(code string) string {
	if s, ok := symbols[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return s
	}
	return code
}

// Known reports whether code is in the symbol table.
func Known(code string) bool {
	_, ok := symbols[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// Codes returns the number of codes in the table.
func Codes() int {
	return len(symbols)
}
