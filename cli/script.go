package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	lua "github.com/yuin/gopher-lua"

	"github.com/opencnc/stepcore/machine"
	"github.com/opencnc/stepcore/step"
)

var scriptCmd = &cobra.Command{
	Use:   "script <file.lua>",
	Short: "Drive the simulated core from a Lua script",
	Long: `script exposes the core to Lua for exploratory motion sequences:

  constant{{100,1000,0,0},{0,0,0,0}}   -- steps,deltaT,num,den per axis
  accel{{50,2000,6,0,0},{0,0,0,0,0}}   -- steps,deltaT,n,base,remainder
  position(0)                          -- signed steps of axis 0
  elapsed()                            -- simulated ticks so far

Each instruction call schedules and fully drains one instruction.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := machine.Load(profilePath)
		if err != nil {
			return err
		}
		sim, core, notes, err := newSimCore(profile)
		if err != nil {
			return err
		}

		L := lua.NewState()
		defer L.Close()
		registerBindings(L, profile.Axes, sim, core)

		if err := L.DoFile(args[0]); err != nil {
			return fmt.Errorf("script: %w", err)
		}

		fmt.Printf("elapsed: %d ticks\n", sim.Now())
		for axis := 0; axis < profile.Axes; axis++ {
			fmt.Printf("axis %d position: %+d steps\n", axis, core.Controller().StepPosition(axis))
		}
		fmt.Printf("notifications: %s\n", notes.summary())
		return nil
	},
}

func registerBindings(L *lua.LState, axes int, sim *step.SimOutput, core *step.Core) {
	instr := func(kind step.PlanKind, fields int) lua.LGFunction {
		return func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			if tbl.Len() != axes {
				L.RaiseError("%s: %d axis groups, want %d", kind, tbl.Len(), axes)
			}
			var payload []byte
			for i := 1; i <= axes; i++ {
				group, ok := tbl.RawGetInt(i).(*lua.LTable)
				if !ok {
					L.RaiseError("%s: axis %d group is not a table", kind, i-1)
				}
				vals, err := luaGroup(group, fields)
				if err != nil {
					L.RaiseError("%s: axis %d: %s", kind, i-1, err)
				}
				enc, err := encodeGroup(kind, vals)
				if err != nil {
					L.RaiseError("%s: axis %d: %s", kind, i-1, err)
				}
				payload = append(payload, enc...)
			}
			if err := core.Execute(kind, payload); err != nil {
				L.RaiseError("%s", err)
			}
			sim.Run()
			return 0
		}
	}

	L.SetGlobal("constant", L.NewFunction(instr(step.PlanConstant, 4)))
	L.SetGlobal("accel", L.NewFunction(instr(step.PlanAcceleration, 5)))

	L.SetGlobal("position", L.NewFunction(func(L *lua.LState) int {
		axis := L.CheckInt(1)
		if axis < 0 || axis >= axes {
			L.RaiseError("position: axis %d out of range", axis)
		}
		L.Push(lua.LNumber(core.Controller().StepPosition(axis)))
		return 1
	}))

	L.SetGlobal("elapsed", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(sim.Now()))
		return 1
	}))

	L.SetGlobal("home", L.NewFunction(func(L *lua.LState) int {
		core.Home(step.PlanConstant)
		sim.Run()
		return 0
	}))
}

func luaGroup(tbl *lua.LTable, fields int) ([]int64, error) {
	if tbl.Len() != fields {
		return nil, fmt.Errorf("%d fields, want %d", tbl.Len(), fields)
	}
	vals := make([]int64, fields)
	for i := 1; i <= fields; i++ {
		num, ok := tbl.RawGetInt(i).(lua.LNumber)
		if !ok {
			return nil, fmt.Errorf("field %d is not a number", i)
		}
		vals[i-1] = int64(num)
	}
	return vals, nil
}
