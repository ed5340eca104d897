package esco

// sectorNames is the fixed KldB economic-sector taxonomy. Declared user
// preferences and the esco2kldb occupation mapping both use these codes.
var sectorNames = map[int]string{
	0: "Militär",
	1: "Land-, Forst- und Tierwirtschaft und Gartenbau",
	2: "Rohstoffgewinnung, Produktion und Fertigung",
	3: "Bau, Architektur, Vermessung und Gebäudetechnik",
	4: "Naturwissenschaft, Geografie und Informatik",
	5: "Verkehr, Logistik, Schutz und Sicherheit",
	6: "Kaufmännische Dienstleistungen, Warenhandel, Vertrieb, Hotel und Tourismus",
	7: "Unternehmensorganisation, Buchhaltung, Recht und Verwaltung",
	8: "Gesundheit, Soziales, Lehre und Erziehung",
	9: "Sprach-, Geistes-, Gesellschafts- und Wirtschaftswissenschaften, Medien, Kunst und Kultur",
}

// SectorName returns the display name for a sector code.
func SectorName(code int) (string, bool) {
	name, ok := sectorNames[code]
	return name, ok
}

// SectorCode resolves a sector name to its code.
func SectorCode(name string) (int, bool) {
	for code, candidate := range sectorNames {
		if candidate == name {
			return code, true
		}
	}
	return 0, false
}
