package debugger

import (
	"github.com/pixelvm/pixelvm/translate"
)

var f = translate.From
