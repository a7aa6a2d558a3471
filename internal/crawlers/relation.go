package crawlers

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-rod/rod"
	"golang.org/x/time/rate"

	"github.com/RecoveryAshes/KeywordSpider/internal/config"
	"github.com/RecoveryAshes/KeywordSpider/internal/utils"
)

const (
	checkJitterMin  = 3 * time.Second
	checkJitterMax  = 5 * time.Second
	batchPauseEvery = 10
	batchPause      = 15 * time.Second
)

// FollowerChecker 核验评论者是否关注帖子作者
// 逐个在粉丝列表搜索框里检索,节奏受限速器和随机抖动双重约束,
// 同一用户只查一次,結果进程内缓存
type FollowerChecker struct {
	page    *rod.Page
	limiter *rate.Limiter
	cache   map[string]bool
	checked int
}

// NewFollowerChecker 创建核验器,rps为限速器速率
func NewFollowerChecker(page *rod.Page, rps float64) *FollowerChecker {
	return &FollowerChecker{
		page:    page,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		cache:   make(map[string]bool),
	}
}

// OpenFollowerList 打开作者粉丝列表弹窗,返回搜索输入框
func (fc *FollowerChecker) OpenFollowerList(ctx context.Context, author string) (*rod.Element, error) {
	err := rod.Try(func() {
		fc.page.Timeout(30 * time.Second).
			MustNavigate(fmt.Sprintf("https://www.instagram.com/%s/", author)).
			MustWaitLoad()
	})
	if err != nil {
		return nil, wrapTimeout("打开作者主页", err)
	}
	time.Sleep(2 * time.Second)

	link, err := waitElement(fc.page, fmt.Sprintf(`a[href="/%s/followers/"]`, author), 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("定位粉丝列表入口: %w", err)
	}
	if err := rod.Try(func() { link.MustClick() }); err != nil {
		return nil, wrapTimeout("打开粉丝列表", err)
	}
	time.Sleep(2 * time.Second)

	input, err := FirstMatch(fc.page, config.SNSSelectors.FollowerSearch, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("定位粉丝搜索框: %w", err)
	}
	return input, nil
}

// CheckAll 逐个核验usernames是否出现在粉丝列表中
// onProgress 每完成一个上报 0.0~1.0
// 粉丝列表本身打不开时降级: 全部按未关注返回,不让任务整体失败
func (fc *FollowerChecker) CheckAll(ctx context.Context, author string, usernames []string, onProgress func(float64)) (map[string]bool, error) {
	input, err := fc.OpenFollowerList(ctx, author)
	if err != nil {
		utils.Warnf("⚠️ 无法打开粉丝列表, 全部按未关注处理: %v", err)
		results := make(map[string]bool, len(usernames))
		for _, name := range usernames {
			results[name] = false
		}
		if onProgress != nil {
			onProgress(1.0)
		}
		return results, nil
	}

	results := make(map[string]bool, len(usernames))
	for i, name := range usernames {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		if hit, ok := fc.cache[name]; ok {
			results[name] = hit
			continue
		}

		if err := fc.limiter.Wait(ctx); err != nil {
			return results, err
		}

		hit, err := fc.checkOne(input, name)
		if err != nil {
			utils.Warnf("⚠️ 核验 %s 失败: %v, 按未关注处理", name, err)
			hit = false
		}
		fc.cache[name] = hit
		results[name] = hit
		fc.checked++

		if onProgress != nil {
			onProgress(float64(i+1) / float64(len(usernames)))
		}

		// 连续检索会触发风控,每批额外停顿
		if fc.checked%batchPauseEvery == 0 {
			utils.Infof("⏸️ 已核验%d人, 暂停%v降低风控风险", fc.checked, batchPause)
			time.Sleep(batchPause)
		}
	}
	return results, nil
}

// checkOne 在搜索框检索单个用户名并确认结果
func (fc *FollowerChecker) checkOne(input *rod.Element, name string) (bool, error) {
	err := rod.Try(func() {
		input.MustSelectAllText().MustInput(name)
	})
	if err != nil {
		return false, wrapTimeout("填写搜索框", err)
	}

	// 搜索结果异步渲染,等待时间加随机抖动
	time.Sleep(checkJitterMin + time.Duration(rand.Int63n(int64(checkJitterMax-checkJitterMin))))

	has, _, err := fc.page.Has(fmt.Sprintf(`a[href="/%s/"]`, name))
	if err != nil {
		return false, err
	}
	return has, nil
}
