package model

// Product is a catalog entry.  The json keys are the ones used by the
// products.json files the shop already has on disk.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"nome"`
	Price       float64  `json:"preco"`
	Description string   `json:"descricao"`
	Image       string   `json:"imagem"`
	Images      []string `json:"imagens,omitempty"`
	Category    string   `json:"categoria"`
}

// Category groups products by name.  CreatedAt is epoch milliseconds.
type Category struct {
	ID        string `json:"id"`
	Name      string `json:"nome"`
	CreatedAt int64  `json:"createdAt"`
}

// Contacts is the single shop contact card shown in the footer.
type Contacts struct {
	Email     string `json:"email"`
	Instagram string `json:"instagram"`
	Facebook  string `json:"facebook"`
	Phone     string `json:"telefone"`
	UpdatedAt int64  `json:"updatedAt"`
}
