package ratelimit

import "sync"

// clientWindow 保存单个客户端在窗口内被放行的请求时间戳
type clientWindow struct {
	timestamps []int64 // 按写入顺序排列
	lastSeen   int64   // 最近一次访问时间，包括被拒绝的请求
}

// newest 返回最近一次被放行的时间戳
func (w *clientWindow) newest() int64 {
	return w.timestamps[len(w.timestamps)-1]
}

// shard 是客户端映射的一个分片，由自身的互斥锁保护
type shard struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
}

func newShard() *shard {
	return &shard{clients: make(map[string]*clientWindow)}
}

// retain 原地保留满足 now-t < window 的时间戳，返回保留后的切片与其中最早的时间戳
func retain(timestamps []int64, now, window int64) ([]int64, int64) {
	kept := timestamps[:0]
	var oldest int64
	for _, ts := range timestamps {
		if now-ts < window {
			if len(kept) == 0 || ts < oldest {
				oldest = ts
			}
			kept = append(kept, ts)
		}
	}
	return kept, oldest
}

// countRetained 统计满足 now-t < window 的时间戳，不修改切片
func countRetained(timestamps []int64, now, window int64) (count int, oldest, newest int64) {
	for _, ts := range timestamps {
		if now-ts < window {
			if count == 0 || ts < oldest {
				oldest = ts
			}
			if count == 0 || ts > newest {
				newest = ts
			}
			count++
		}
	}
	return count, oldest, newest
}
