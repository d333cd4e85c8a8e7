package repository

// DatasetStore oxirgi qabul qilingan Excel fayl (reload uchun)
type DatasetStore interface {
	Path() string
	Save(data []byte) error
}
