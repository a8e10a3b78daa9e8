package model

// Customer is the billed party.
type Customer struct {
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Phone   string `json:"phone"`
}

// BankInfo is where the freelancer gets paid.
type BankInfo struct {
	BankName      string `json:"bankName"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	Branch        string `json:"branch,omitempty"`
	Swift         string `json:"swift,omitempty"`
}

// Freelancer is the issuing party's profile (config/freelancer.json).
type Freelancer struct {
	Name     string   `json:"name"`
	Title    string   `json:"title,omitempty"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Address  string   `json:"address"`
	BankInfo BankInfo `json:"bankInfo"`
}
