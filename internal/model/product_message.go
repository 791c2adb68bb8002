package model

const (
	ProductActionUpsert = "upsert"
	ProductActionDelete = "delete"
)

// ProductMessage là sự kiện thay đổi sản phẩm gửi tới Kafka để đồng bộ chỉ mục tìm kiếm
type ProductMessage struct {
	ID     uint   `json:"id"`
	Action string `json:"action"`
}
