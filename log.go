package marketseed

import (
	"github.com/permadex/marketseed/common"
)

var log = common.NewLog("marketseed")
