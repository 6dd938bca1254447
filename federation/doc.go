// 包federation实现节点协议客户端与散发-汇聚调度引擎.
// 客户端按节点协议 (GET /health, POST /search) 与数据节点通信,
// 引擎并发派发经隐私变换的查询并隔离单节点失败.
package federation
