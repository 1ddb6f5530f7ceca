package funnel

import "gorm.io/gorm"

func withID(id uint) gorm.Model {
	return gorm.Model{ID: id}
}
