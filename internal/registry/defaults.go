package registry

import (
	"time"

	"fjacquet/ekstre-csv/internal/models"
)

// DefaultDateSeparators is used for every format that declares none.
var DefaultDateSeparators = []string{"/", "."}

// BankingTerms are generic words found in statement file names. They only
// reinforce a filename score that is already above the noise floor.
var BankingTerms = []string{
	"banka", "bank", "ekstre", "hesap", "ekstresi", "rapor", "ozet", "dekont",
	"statement", "account",
}

// KnownAliases maps a format id to the alternative spellings seen in file
// names. It covers banks that have no built-in descriptor so a descriptor
// added later with one of these ids picks up its aliases automatically.
var KnownAliases = map[string][]string{
	"is_bankasi":  {"iş", "is bank", "isbank", "turkiye is", "türkiye iş", "isbankası", "işbankası"},
	"garanti":     {"garanti", "gbankasi", "gbbankasi", "garantibbva", "gbbva", "gb", "garantibankasi"},
	"akbank":      {"akbank", "akb", "ak bank", "ak_bank", "akbnk"},
	"ziraat":      {"ziraat", "tc ziraat", "tczbankasi", "türkiye cumhuriyeti ziraat", "ziraatbank", "zrt"},
	"yapi_kredi":  {"yapı kredi", "yapi kredi", "ykb", "yapi_kredi", "yapıkredi", "yapikredi"},
	"vakifbank":   {"vakıfbank", "vakifbank", "vkf", "vakif", "vakıf", "tvakifbank", "türkiye vakıflar", "vakıflar"},
	"halkbank":    {"halkbank", "halk bank", "halk bankası", "thb", "türkiye halk"},
	"teb":         {"teb", "türk ekonomi", "turk ekonomi", "turkiye ekonomi", "türkiye ekonomi"},
	"finans":      {"finansbank", "qnb", "qnb finans", "finansb", "finans bankası", "qnbfinans", "qnbf"},
	"ing":         {"ing", "ing bank", "ing bankası", "ing turkey", "ing türkiye"},
	"hsbc":        {"hsbc", "hsbc bank", "hsbc türkiye", "hsbc turkey"},
	"denizbank":   {"denizbank", "deniz", "dnz", "deniz bank", "dnz bank"},
	"kuveyt_turk": {"kuveyt türk", "kuveyt turk", "kuveytturk", "ktbank", "kt bank", "kuveyt_turk"},
	"albaraka":    {"albaraka", "albaraka türk", "alb", "alb turk", "albaraka bankası"},
}

// DefaultFormats returns the built-in descriptors in registry order.
func DefaultFormats() []models.FormatDescriptor {
	now := time.Now().UTC().Truncate(time.Second)
	return []models.FormatDescriptor{
		{
			ID:                "garanti",
			Name:              "Garanti Bankası",
			HeaderIdentifiers: []string{"Tarih", "Açıklama", "Tutar", "Bakiye"},
			DateCol:           "Tarih",
			DescriptionCol:    "Açıklama",
			AmountCol:         "Tutar",
			BalanceCol:        "Bakiye",
			DocumentNoCol:     "Dekont No",
			ContentIndicators: []string{"GARANTİ", "BBVA", "BONUS", "PARAMATIK", "BNK", "G.BANKASI"},
			Fingerprints:      []string{"GARANTİ", "BBVA", "BNK", "BONUS", "PARAMATIK", "BANKAMATIK", "GİB", "PARA ÇIKIŞI", "PARA GİRİŞİ", "G.BANKASI"},
			DateSeparators:    []string{"/", "."},
			Active:            true,
			CreatedAt:         now,
		},
		{
			ID:                "is_bankasi",
			Name:              "İş Bankası",
			HeaderIdentifiers: []string{"İşlem Tarihi", "Açıklama", "Tutar", "Bakiye"},
			DateCol:           "İşlem Tarihi",
			DescriptionCol:    "Açıklama",
			AmountCol:         "Tutar",
			BalanceCol:        "Bakiye",
			DocumentNoCol:     "İşlem No",
			ContentIndicators: []string{"İŞ BANKASI", "İŞCEP", "MAXIPARA", "MXP", "TÜRKİYE İŞ BANKASI"},
			Fingerprints:      []string{"İŞ BANKASI", "İŞCEP", "MXP", "MAXIPARA", "TRX", "SÖZLEŞME", "YATIRIM", "3D", "KART", "KRD", "KMH"},
			DateSeparators:    []string{"/", "."},
			Active:            true,
			CreatedAt:         now,
		},
		{
			ID:                "akbank",
			Name:              "Akbank",
			HeaderIdentifiers: []string{"TARİH", "AÇIKLAMA", "TUTAR", "BAKİYE"},
			DateCol:           "TARİH",
			DescriptionCol:    "AÇIKLAMA",
			AmountCol:         "TUTAR",
			BalanceCol:        "BAKİYE",
			ContentIndicators: []string{"AKBANK", "AXESS", "AKSİGORTA", "AKODE", "AK BANK"},
			Fingerprints:      []string{"AKBANK", "AXESS", "AKSİGORTA", "AKODE", "KARTTAN", "AK"},
			DateSeparators:    []string{"/", "."},
			Active:            true,
			CreatedAt:         now,
		},
		{
			ID:                "ziraat",
			Name:              "Ziraat Bankası",
			HeaderIdentifiers: []string{"Tarih", "Açıklama", "Borç", "Alacak", "Bakiye"},
			DateCol:           "Tarih",
			DescriptionCol:    "Açıklama",
			DebitCol:          "Borç",
			CreditCol:         "Alacak",
			BalanceCol:        "Bakiye",
			ContentIndicators: []string{"ZİRAAT", "TC ZİRAAT", "ZİRAAT BANKASI", "ZİRAATKART"},
			Fingerprints:      []string{"ZİRAAT", "ZTK", "ZBK", "TC ZİRAAT", "ZİRAATKART", "BANKKART", "ZB"},
			DateSeparators:    []string{"/", "."},
			Active:            true,
			CreatedAt:         now,
		},
	}
}

// withDefaults fills aliases and date separators a descriptor leaves empty.
func withDefaults(f models.FormatDescriptor) models.FormatDescriptor {
	if len(f.Aliases) == 0 {
		if aliases, ok := KnownAliases[f.ID]; ok {
			f.Aliases = append([]string(nil), aliases...)
		}
	}
	if len(f.DateSeparators) == 0 {
		f.DateSeparators = append([]string(nil), DefaultDateSeparators...)
	}
	return f
}
