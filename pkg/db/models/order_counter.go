package models

// OrderCounter is the atomic daily sequence backing order numbers. One row
// per calendar day, incremented inside the order creation transaction.
type OrderCounter struct {
	Day string `gorm:"column:day;primaryKey"`
	Seq int    `gorm:"column:seq;not null;default:0"`
}

func (OrderCounter) TableName() string {
	return "order_counters"
}
