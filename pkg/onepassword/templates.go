package onepassword

// Item template constructors. The field ids, types and labels mirror the
// templates served by `op item template get`.

const (
	categoryLogin       = "LOGIN"
	categorySecureNote  = "SECURE_NOTE"
	categoryCreditCard  = "CREDIT_CARD"
	categoryBankAccount = "BANK_ACCOUNT"
)

func notesField(notes string) ItemField {
	return ItemField{
		ID:      "notesPlain",
		Type:    "STRING",
		Purpose: "NOTES",
		Label:   "notesPlain",
		Value:   notes,
	}
}

// LoginTemplate builds a Login item. An empty url becomes the "no URL"
// placeholder; an empty otp is omitted.
func LoginTemplate(title, username, password, url, notes, otp string) ItemTemplate {
	t := ItemTemplate{
		Title:    title,
		Category: categoryLogin,
		Fields: []ItemField{
			{
				ID:      "username",
				Type:    "STRING",
				Purpose: "USERNAME",
				Label:   "username",
				Value:   username,
			},
			{
				ID:      "password",
				Type:    "CONCEALED",
				Purpose: "PASSWORD",
				Label:   "password",
				Value:   password,
			},
			notesField(notes),
		},
	}
	if url == "" {
		url = "no URL"
	}
	t.URLs = []ItemURL{{Label: "website", Primary: true, Href: url}}
	if otp != "" {
		t.Fields = append(t.Fields, ItemField{
			ID:    "one-time password",
			Type:  "OTP",
			Label: "one-time password",
			Value: otp,
		})
	}
	return t
}

// SecureNoteTemplate builds a Secure Note item carrying the raw notes text.
func SecureNoteTemplate(title, notes string) ItemTemplate {
	return ItemTemplate{
		Title:    title,
		Category: categorySecureNote,
		Fields:   []ItemField{notesField(notes)},
	}
}

type CreditCardFields struct {
	Cardholder         string
	Type               string
	Number             string
	VerificationNumber string
	// Expiry and ValidFrom are YYYYMM month/year values.
	Expiry    string
	ValidFrom string
	Notes     string
}

func CreditCardTemplate(title string, f CreditCardFields) ItemTemplate {
	return ItemTemplate{
		Title:    title,
		Category: categoryCreditCard,
		Fields: []ItemField{
			notesField(f.Notes),
			{ID: "cardholder", Type: "STRING", Label: "cardholder name", Value: f.Cardholder},
			{ID: "type", Type: "CREDIT_CARD_TYPE", Label: "type", Value: f.Type},
			{ID: "ccnum", Type: "CREDIT_CARD_NUMBER", Label: "number", Value: f.Number},
			{ID: "cvv", Type: "CONCEALED", Label: "verification number", Value: f.VerificationNumber},
			{ID: "expiry", Type: "MONTH_YEAR", Label: "expiry date", Value: f.Expiry},
			{ID: "validFrom", Type: "MONTH_YEAR", Label: "valid from", Value: f.ValidFrom},
		},
	}
}

type BankAccountFields struct {
	BankName      string
	AccountType   string
	RoutingNumber string
	AccountNumber string
	SWIFT         string
	IBAN          string
	PIN           string
	BranchPhone   string
	BranchAddress string
	Notes         string
}

func BankAccountTemplate(title string, f BankAccountFields) ItemTemplate {
	branch := &ItemSection{ID: "branchInfo", Label: "Branch Information"}
	return ItemTemplate{
		Title:    title,
		Category: categoryBankAccount,
		Fields: []ItemField{
			notesField(f.Notes),
			{ID: "bankName", Type: "STRING", Label: "bank name", Value: f.BankName},
			{ID: "accountType", Type: "MENU", Label: "type", Value: f.AccountType},
			{ID: "routingNo", Type: "STRING", Label: "routing number", Value: f.RoutingNumber},
			{ID: "accountNo", Type: "STRING", Label: "account number", Value: f.AccountNumber},
			{ID: "swift", Type: "STRING", Label: "SWIFT", Value: f.SWIFT},
			{ID: "iban", Type: "STRING", Label: "IBAN", Value: f.IBAN},
			{ID: "telephonePin", Type: "CONCEALED", Label: "PIN", Value: f.PIN},
			{ID: "branchPhone", Type: "PHONE", Label: "phone", Value: f.BranchPhone, Section: branch},
			{ID: "branchAddress", Type: "STRING", Label: "address", Value: f.BranchAddress, Section: branch},
		},
	}
}
