package shared

// AggregateRoot 聚合根接口
// 聚合根记录领域事件；调用方在持久化成功后读取事件、逐条发布，再显式清空。
type AggregateRoot interface {
	// Version 返回当前版本号，用于乐观锁并发控制
	Version() int

	// DomainEvents 返回尚未清空的领域事件副本（按追加顺序）
	DomainEvents() []DomainEvent

	// ClearDomainEvents 清空事件日志，不影响聚合的其他状态
	ClearDomainEvents()
}
