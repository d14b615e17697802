package persistence

import "time"

// ReportModel represents a report's metadata in the database.
type ReportModel struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	Reference   string     `gorm:"column:reference;index;size:64"`
	Kind        string     `gorm:"column:kind;index;size:32"`
	Title       string     `gorm:"column:title;size:512"`
	ClientName  string     `gorm:"column:client_name;index;size:255"`
	SiteAddress string     `gorm:"column:site_address;size:1024"`
	ServiceDate *time.Time `gorm:"column:service_date;index"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (ReportModel) TableName() string {
	return "reports"
}

// ReportDocumentModel holds the content document of one report.
// SchemaVersion 0 marks rows written before the column existed.
type ReportDocumentModel struct {
	ReportID      int64     `gorm:"column:report_id;primaryKey;autoIncrement:false"`
	SchemaVersion int       `gorm:"column:schema_version;index;default:0"`
	Document      string    `gorm:"column:document;type:text"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (ReportDocumentModel) TableName() string {
	return "report_documents"
}
