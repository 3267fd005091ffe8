package bankparser

import (
	"fmt"

	"fjacquet/ekstre-csv/internal/logging"
	"fjacquet/ekstre-csv/internal/parsererror"
)

// Format ids with a dedicated parser.
const (
	Garanti   = "garanti"
	IsBankasi = "is_bankasi"
	Akbank    = "akbank"
	Ziraat    = "ziraat"
)

var (
	dateFragments        = []string{"tarih"}
	descriptionFragments = []string{"açıklama", "aciklama", "açiklama"}
)

// GarantiLayout is the single-amount shape shared by Garanti and Akbank.
var GarantiLayout = Layout{
	Name: Garanti,
	Rules: []Rule{
		{FieldDate, dateFragments},
		{FieldDescription, descriptionFragments},
		{FieldAmount, []string{"tutar"}},
		{FieldBalance, []string{"bakiye"}},
		{FieldDocumentNo, []string{"dekont"}},
	},
	Required:  []Field{FieldDate, FieldDescription, FieldAmount},
	Positions: []Field{FieldDate, FieldDescription, FieldAmount, FieldBalance},
}

// IsBankasiLayout is the single-amount shape of İş Bankası, which also
// carries a transaction number and is sorted by date.
var IsBankasiLayout = Layout{
	Name: IsBankasi,
	Rules: []Rule{
		{FieldDocumentNo, []string{"işlem no", "islem no"}},
		{FieldDate, dateFragments},
		{FieldDescription, descriptionFragments},
		{FieldAmount, []string{"tutar"}},
		{FieldBalance, []string{"bakiye"}},
	},
	Required:   []Field{FieldDate, FieldDescription, FieldAmount},
	Positions:  []Field{FieldDate, FieldDescription, FieldAmount, FieldBalance},
	SortByDate: true,
}

// ZiraatLayout is the debit/credit shape.
var ZiraatLayout = Layout{
	Name: Ziraat,
	Rules: []Rule{
		{FieldDate, dateFragments},
		{FieldDescription, descriptionFragments},
		{FieldDebit, []string{"borç", "borc"}},
		{FieldCredit, []string{"alacak"}},
		{FieldBalance, []string{"bakiye"}},
		{FieldDocumentNo, []string{"işlem no", "islem no"}},
	},
	Required:  []Field{FieldDate, FieldDescription, FieldDebit, FieldCredit},
	Positions: []Field{FieldDate, FieldDescription, FieldDebit, FieldCredit, FieldBalance},
}

// GetParserWithLogger returns the parser registered for a format id.
// Akbank shares the Garanti routine.
func GetParserWithLogger(formatID string, logger logging.Logger) (Parser, error) {
	switch formatID {
	case Garanti, Akbank:
		return NewTableParser(GarantiLayout, logger), nil
	case IsBankasi:
		return NewTableParser(IsBankasiLayout, logger), nil
	case Ziraat:
		return NewTableParser(ZiraatLayout, logger), nil
	default:
		return nil, fmt.Errorf("%w: no bank parser for %q", parsererror.ErrFormatNotFound, formatID)
	}
}

// Has reports whether a dedicated parser exists for formatID.
func Has(formatID string) bool {
	switch formatID {
	case Garanti, Akbank, IsBankasi, Ziraat:
		return true
	}
	return false
}
