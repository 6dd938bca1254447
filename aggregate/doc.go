// 包aggregate实现跨节点结果的去重与排序融合.
// 文档身份由内容指纹决定 (来源字段不参与), 四种排序策略
// 共享同一组 [0,1] 区间的纯评分函数.
package aggregate
