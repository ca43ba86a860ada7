package app

import (
	"github.com/specialistvlad/testgrid/internal/registry"
	"github.com/specialistvlad/testgrid/modules/echo"
	"github.com/specialistvlad/testgrid/modules/openai"
	"github.com/specialistvlad/testgrid/modules/socketio"
)

// coreModules is the definitive list of all text generation backends that
// are compiled into the testgrid binary.
var coreModules = []registry.Module{
	&echo.Module{},
	&openai.Module{},
	&socketio.Module{},
}
