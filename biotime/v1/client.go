package v1

type BioTimeClient struct {
	Transport    *Transport
	Transactions *TransactionEndpoint
}

// NewBioTimeClient initializes the API client
func NewBioTimeClient(baseURL string, token string) *BioTimeClient {
	t := NewTransport(baseURL, token)
	return &BioTimeClient{
		Transport:    t,
		Transactions: &TransactionEndpoint{transport: t},
	}
}
