package redis

import (
	"fmt"
	"strconv"
	"time"
)

// 未读消息总数缓存相关常量
// 权威未读数存放在会话记录的未读映射中，这里缓存各用户的汇总值，
// 供"总未读数"接口快速返回；缓存缺失时由数据库重算并回填
const (
	UnreadCountKeyPrefix = "el:unread:total:" // 未读总数key前缀
	UnreadCountTTL       = 24 * time.Hour     // 未读总数缓存TTL
)

// SetTotalUnread 写入用户未读总数缓存
func SetTotalUnread(userID uint, count int64) error {
	if client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}

	key := fmt.Sprintf("%s%d", UnreadCountKeyPrefix, userID)

	if err := client.Set(ctx, key, count, UnreadCountTTL).Err(); err != nil {
		return fmt.Errorf("设置未读总数失败: %w", err)
	}

	return nil
}

// GetTotalUnread 获取用户未读总数缓存
// key不存在时返回 -1，表示需要从数据库重算
func GetTotalUnread(userID uint) (int64, error) {
	if client == nil {
		return 0, fmt.Errorf("redis客户端未初始化")
	}

	key := fmt.Sprintf("%s%d", UnreadCountKeyPrefix, userID)

	result, err := client.Get(ctx, key).Result()
	if err != nil {
		if err.Error() == "redis: nil" {
			return -1, nil
		}
		return 0, fmt.Errorf("获取未读总数失败: %w", err)
	}

	count, err := strconv.ParseInt(result, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("解析未读总数失败: %w", err)
	}

	return count, nil
}

// InvalidateTotalUnread 使用户未读总数缓存失效
// 发送消息或标记已读后调用，下次查询时从数据库重算
func InvalidateTotalUnread(userID uint) error {
	if client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}

	key := fmt.Sprintf("%s%d", UnreadCountKeyPrefix, userID)

	if err := client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("清除未读总数缓存失败: %w", err)
	}

	return nil
}
