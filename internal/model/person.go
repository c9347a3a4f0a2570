package model

// Person is a customer or supplier an invoice is addressed to. Deleting a
// person is blocked while invoices reference them (restrict policy).
type Person struct {
	BaseModel
	FullName    string `gorm:"type:varchar(255);not null" json:"full_name" validate:"required"`
	DocumentID  string `gorm:"type:varchar(50)" json:"document_id"`
	Email       string `gorm:"type:varchar(255)" json:"email"`
	PhoneNumber string `gorm:"type:varchar(20)" json:"phone_number"`
	Address     string `json:"address"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	Invoices []Invoice `gorm:"foreignKey:PersonID" json:"invoices,omitempty"`
}
