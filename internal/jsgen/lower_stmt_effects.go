package jsgen

import (
	"fmt"

	"sprocket/internal/ir"
)

const penExt = "runtime.ext_pen"

// descendEffectStmt lowers the side-effecting statement kinds: variable
// and list mutation, looks, motion, pen and sensing.set.of. handled is
// false when the kind belongs to no group here.
func (c *Compiler) descendEffectStmt(node *ir.Node) (handled bool, err error) {
	switch node.Kind {
	case ir.KindVarSet:
		return true, c.lowerVarSet(node)
	case ir.KindVarShow, ir.KindVarHide:
		data, err := payload[ir.VarData](node)
		if err != nil {
			return true, err
		}
		c.emitMonitorVisibility(data.Variable.ID, node.Kind == ir.KindVarShow)
		return true, nil

	case ir.KindListAdd:
		data, err := payload[ir.ListItemData](node)
		if err != nil {
			return true, err
		}
		item, err := c.descendInput(data.Item)
		if err != nil {
			return true, err
		}
		list := c.referenceList(data.List)
		c.emitLine("%s.value.push(%s);", list, item.AsSafe())
		c.emitLine("%s._monitorUpToDate = false;", list)
		return true, nil

	case ir.KindListDelete:
		data, err := payload[ir.ListIndexData](node)
		if err != nil {
			return true, err
		}
		index, err := c.descendInput(data.Index)
		if err != nil {
			return true, err
		}
		list := c.referenceList(data.List)
		if lit, ok := constantValue(data.Index); ok && ToString(lit) == "last" {
			c.emitLine("%s.value.pop();", list)
			c.emitLine("%s._monitorUpToDate = false;", list)
			return true, nil
		}
		c.emitLine("listDelete(%s, %s);", list, index.AsUnknown())
		return true, nil

	case ir.KindListDeleteAll:
		data, err := payload[ir.ListData](node)
		if err != nil {
			return true, err
		}
		c.emitLine("%s.value = [];", c.referenceList(data.List))
		return true, nil

	case ir.KindListInsert:
		data, err := payload[ir.ListInsertData](node)
		if err != nil {
			return true, err
		}
		index, err := c.descendInput(data.Index)
		if err != nil {
			return true, err
		}
		item, err := c.descendInput(data.Item)
		if err != nil {
			return true, err
		}
		list := c.referenceList(data.List)
		if lit, ok := constantValue(data.Index); ok && ToString(lit) == "last" {
			c.emitLine("%s.value.push(%s);", list, item.AsSafe())
			c.emitLine("%s._monitorUpToDate = false;", list)
			return true, nil
		}
		c.emitLine("listInsert(%s, %s, %s);", list, index.AsUnknown(), item.AsSafe())
		return true, nil

	case ir.KindListReplace:
		data, err := payload[ir.ListReplaceData](node)
		if err != nil {
			return true, err
		}
		index, err := c.descendInput(data.Index)
		if err != nil {
			return true, err
		}
		item, err := c.descendInput(data.Item)
		if err != nil {
			return true, err
		}
		c.emitLine("listReplace(%s, %s, %s);", c.referenceList(data.List), index.AsUnknown(), item.AsSafe())
		return true, nil

	case ir.KindListShow, ir.KindListHide:
		data, err := payload[ir.ListData](node)
		if err != nil {
			return true, err
		}
		c.emitMonitorVisibility(data.List.ID, node.Kind == ir.KindListShow)
		return true, nil

	case ir.KindListForEach:
		return true, c.lowerListForEach(node)

	case ir.KindLooksChangeEffect:
		data, err := payload[ir.EffectData](node)
		if err != nil {
			return true, err
		}
		value, err := c.descendInput(data.Value)
		if err != nil {
			return true, err
		}
		c.emitLine(`target.setEffect(%s, runtime.ext_scratch3_looks.clampEffect(%s, %s + target.effects[%s]));`,
			quote(data.Effect), quote(data.Effect), value.AsNumber(), quote(data.Effect))
		return true, nil
	case ir.KindLooksSetEffect:
		data, err := payload[ir.EffectData](node)
		if err != nil {
			return true, err
		}
		value, err := c.descendInput(data.Value)
		if err != nil {
			return true, err
		}
		c.emitLine(`target.setEffect(%s, runtime.ext_scratch3_looks.clampEffect(%s, %s));`,
			quote(data.Effect), quote(data.Effect), value.AsNumber())
		return true, nil
	case ir.KindLooksClearEffects:
		c.emitLine("target.clearEffects();")
		return true, nil
	case ir.KindLooksChangeSize:
		data, err := payload[ir.SizeData](node)
		if err != nil {
			return true, err
		}
		size, err := c.descendInput(data.Size)
		if err != nil {
			return true, err
		}
		c.emitLine("target.setSize(target.size + %s);", size.AsNumber())
		return true, nil
	case ir.KindLooksSetSize:
		data, err := payload[ir.SizeData](node)
		if err != nil {
			return true, err
		}
		size, err := c.descendInput(data.Size)
		if err != nil {
			return true, err
		}
		c.emitLine("target.setSize(%s);", size.AsNumber())
		return true, nil
	case ir.KindLooksForwardLayers:
		data, err := payload[ir.LayersData](node)
		if err != nil {
			return true, err
		}
		layers, err := c.descendInput(data.Layers)
		if err != nil {
			return true, err
		}
		c.emitLine("target.goForwardLayers(%s);", layers.AsNumber())
		return true, nil
	case ir.KindLooksBackwardLayers:
		data, err := payload[ir.LayersData](node)
		if err != nil {
			return true, err
		}
		layers, err := c.descendInput(data.Layers)
		if err != nil {
			return true, err
		}
		c.emitLine("target.goBackwardLayers(%s);", layers.AsNumber())
		return true, nil
	case ir.KindLooksGoToBack:
		c.emitLine("target.goToBack();")
		return true, nil
	case ir.KindLooksGoToFront:
		c.emitLine("target.goToFront();")
		return true, nil
	case ir.KindLooksHide:
		c.emitLine("target.setVisible(false);")
		c.emitLine("runtime.ext_scratch3_looks._renderBubble(target);")
		return true, nil
	case ir.KindLooksShow:
		c.emitLine("target.setVisible(true);")
		c.emitLine("runtime.ext_scratch3_looks._renderBubble(target);")
		return true, nil
	case ir.KindLooksNextBackdrop:
		c.emitLine("runtime.ext_scratch3_looks._setBackdrop(stage, stage.currentCostume + 1, true);")
		return true, nil
	case ir.KindLooksNextCostume:
		c.emitLine("target.setCostume(target.currentCostume + 1);")
		return true, nil
	case ir.KindLooksSwitchBackdrop:
		data, err := payload[ir.CostumeData](node)
		if err != nil {
			return true, err
		}
		costume, err := c.descendInput(data.Costume)
		if err != nil {
			return true, err
		}
		c.emitLine("runtime.ext_scratch3_looks._setBackdrop(stage, %s);", costume.AsSafe())
		return true, nil
	case ir.KindLooksSwitchCostume:
		data, err := payload[ir.CostumeData](node)
		if err != nil {
			return true, err
		}
		costume, err := c.descendInput(data.Costume)
		if err != nil {
			return true, err
		}
		c.emitLine("runtime.ext_scratch3_looks._setCostume(target, %s);", costume.AsSafe())
		return true, nil

	case ir.KindMotionChangeX:
		data, err := payload[ir.ChangeXData](node)
		if err != nil {
			return true, err
		}
		dx, err := c.descendInput(data.DX)
		if err != nil {
			return true, err
		}
		c.emitLine("target.setXY(target.x + %s, target.y);", dx.AsNumber())
		return true, nil
	case ir.KindMotionChangeY:
		data, err := payload[ir.ChangeYData](node)
		if err != nil {
			return true, err
		}
		dy, err := c.descendInput(data.DY)
		if err != nil {
			return true, err
		}
		c.emitLine("target.setXY(target.x, target.y + %s);", dy.AsNumber())
		return true, nil
	case ir.KindMotionSetX:
		data, err := payload[ir.SetXData](node)
		if err != nil {
			return true, err
		}
		return true, c.emitPositionChange(func() error {
			x, err := c.descendInput(data.X)
			if err != nil {
				return err
			}
			c.emitLine("target.setXY(%s, target.y);", x.AsNumber())
			return nil
		})
	case ir.KindMotionSetY:
		data, err := payload[ir.SetYData](node)
		if err != nil {
			return true, err
		}
		return true, c.emitPositionChange(func() error {
			y, err := c.descendInput(data.Y)
			if err != nil {
				return err
			}
			c.emitLine("target.setXY(target.x, %s);", y.AsNumber())
			return nil
		})
	case ir.KindMotionSetXY:
		data, err := payload[ir.SetXYData](node)
		if err != nil {
			return true, err
		}
		return true, c.emitPositionChange(func() error {
			x, err := c.descendInput(data.X)
			if err != nil {
				return err
			}
			y, err := c.descendInput(data.Y)
			if err != nil {
				return err
			}
			c.emitLine("target.setXY(%s, %s);", x.AsNumber(), y.AsNumber())
			return nil
		})
	case ir.KindMotionIfOnEdgeBounce:
		c.emitLine("runtime.ext_scratch3_motion._ifOnEdgeBounce(target);")
		return true, nil
	case ir.KindMotionSetDirection:
		data, err := payload[ir.SetDirectionData](node)
		if err != nil {
			return true, err
		}
		direction, err := c.descendInput(data.Direction)
		if err != nil {
			return true, err
		}
		c.emitLine("target.setDirection(%s);", direction.AsNumber())
		return true, nil
	case ir.KindMotionSetRotationStyle:
		data, err := payload[ir.SetRotationStyleData](node)
		if err != nil {
			return true, err
		}
		c.emitLine("target.setRotationStyle(%s);", quote(data.Style))
		return true, nil
	case ir.KindMotionStep:
		data, err := payload[ir.StepData](node)
		if err != nil {
			return true, err
		}
		steps, err := c.descendInput(data.Steps)
		if err != nil {
			return true, err
		}
		c.emitLine("runtime.ext_scratch3_motion._moveSteps(%s, target);", steps.AsNumber())
		return true, nil

	case ir.KindPenClear:
		c.emitLine("%s._clear();", penExt)
		return true, nil
	case ir.KindPenDown:
		c.emitLine("%s._penDown(target);", penExt)
		return true, nil
	case ir.KindPenUp:
		c.emitLine("%s._penUp(target);", penExt)
		return true, nil
	case ir.KindPenStamp:
		c.emitLine("%s._stamp(target);", penExt)
		return true, nil
	case ir.KindPenSetColor:
		data, err := payload[ir.ColorData](node)
		if err != nil {
			return true, err
		}
		color, err := c.descendInput(data.Color)
		if err != nil {
			return true, err
		}
		c.emitLine("%s._setPenColorToColor(%s, target);", penExt, color.AsColor())
		return true, nil
	case ir.KindPenChangeParam, ir.KindPenSetParam:
		data, err := payload[ir.PenParamData](node)
		if err != nil {
			return true, err
		}
		param, err := c.descendInput(data.Param)
		if err != nil {
			return true, err
		}
		value, err := c.descendInput(data.Value)
		if err != nil {
			return true, err
		}
		c.emitLine("%s._setOrChangeColorParam(%s, %s, %s._getPenState(target), %s);",
			penExt, param.AsString(), value.AsNumber(), penExt, jsBool(node.Kind == ir.KindPenChangeParam))
		return true, nil
	case ir.KindPenChangeSize:
		data, err := payload[ir.PenSizeData](node)
		if err != nil {
			return true, err
		}
		size, err := c.descendInput(data.Size)
		if err != nil {
			return true, err
		}
		c.emitLine("%s._changePenSizeBy(%s, target);", penExt, size.AsNumber())
		return true, nil
	case ir.KindPenSetSize:
		data, err := payload[ir.PenSizeData](node)
		if err != nil {
			return true, err
		}
		size, err := c.descendInput(data.Size)
		if err != nil {
			return true, err
		}
		c.emitLine("%s._setPenSizeTo(%s, target);", penExt, size.AsNumber())
		return true, nil
	case ir.KindPenLegacyChangeHue:
		data, err := payload[ir.PenHueData](node)
		if err != nil {
			return true, err
		}
		hue, err := c.descendInput(data.Hue)
		if err != nil {
			return true, err
		}
		c.emitLine("%s._changePenHueBy(%s, target);", penExt, hue.AsNumber())
		return true, nil
	case ir.KindPenLegacySetHue:
		data, err := payload[ir.PenHueData](node)
		if err != nil {
			return true, err
		}
		hue, err := c.descendInput(data.Hue)
		if err != nil {
			return true, err
		}
		c.emitLine("%s._setPenHueToNumber(%s, target);", penExt, hue.AsNumber())
		return true, nil
	case ir.KindPenLegacyChangeShade:
		data, err := payload[ir.PenShadeData](node)
		if err != nil {
			return true, err
		}
		shade, err := c.descendInput(data.Shade)
		if err != nil {
			return true, err
		}
		c.emitLine("%s._changePenShadeBy(%s, target);", penExt, shade.AsNumber())
		return true, nil
	case ir.KindPenLegacySetShade:
		data, err := payload[ir.PenShadeData](node)
		if err != nil {
			return true, err
		}
		shade, err := c.descendInput(data.Shade)
		if err != nil {
			return true, err
		}
		c.emitLine("%s._setPenShadeToNumber(%s, target);", penExt, shade.AsNumber())
		return true, nil

	case ir.KindSensingSetOf:
		return true, c.lowerSetOf(node)
	}
	return false, nil
}

func (c *Compiler) lowerVarSet(node *ir.Node) error {
	data, err := payload[ir.VarSetData](node)
	if err != nil {
		return err
	}
	variable := c.descendVariable(data.Variable)
	value, err := c.descendInput(data.Value)
	if err != nil {
		return err
	}
	variable.SetInput(value)
	c.emitLine("%s = %s;", variable.Source(), value.AsSafe())
	if data.Variable.IsCloud {
		c.emitLine("runtime.ioDevices.cloud.requestUpdateVariable(%s, %s);",
			quote(data.Variable.Name), variable.Source())
	}
	return nil
}

func (c *Compiler) emitMonitorVisibility(id string, visible bool) {
	c.emitLine(`runtime.monitorBlocks.changeBlock({ id: %s, element: "checkbox", value: %s }, runtime);`,
		quote(id), jsBool(visible))
}

func (c *Compiler) lowerListForEach(node *ir.Node) error {
	data, err := payload[ir.ListForEachData](node)
	if err != nil {
		return err
	}
	c.resetVariableInputs()
	list := c.referenceList(data.List)
	index := c.locals.Next()
	c.emitLine("for (var %s = 0; %s < %s.value.length; %s++) {", index, index, list, index)
	c.emitLine("%s.value = %s.value[%s];", c.referenceVariable(data.Variable), list, index)
	if err := c.descendStack(data.Do, &Frame{IsLoop: true}); err != nil {
		return err
	}
	if err := c.yieldLoop(); err != nil {
		return err
	}
	c.emitLine("}")
	return nil
}

// emitPositionChange wraps a position mutation. When the inputs descended
// through the modulo helper the interpolation snapshot is dropped, so the
// renderer does not blend across a coordinate wrap.
func (c *Compiler) emitPositionChange(emit func() error) error {
	c.sawModulo = false
	if err := emit(); err != nil {
		return err
	}
	if c.sawModulo {
		c.emitLine("if (target.interpolationData) target.interpolationData = null;")
	}
	return nil
}

// lowerSetOf writes a property or variable of another target.
func (c *Compiler) lowerSetOf(node *ir.Node) error {
	data, err := payload[ir.SetOfData](node)
	if err != nil {
		return err
	}
	object, err := c.descendInput(data.Object)
	if err != nil {
		return err
	}
	value, err := c.descendInput(data.Value)
	if err != nil {
		return err
	}

	var ref string
	if literal, ok := constantValue(data.Object); ok {
		if ToString(literal) == "_stage_" {
			ref = "stage"
		} else {
			ref = c.evaluateOnce(fmt.Sprintf("runtime.getSpriteTargetByName(%s)", object.AsString()))
		}
	} else {
		ref = c.locals.Next()
		c.emitLine(`var %s = %s === "_stage_" ? stage : runtime.getSpriteTargetByName(%s);`,
			ref, object.AsString(), object.AsString())
	}

	c.emitLine("if (%s) {", ref)
	switch data.Property {
	case "x position":
		c.emitLine("%s.setXY(%s, %s.y);", ref, value.AsNumber(), ref)
	case "y position":
		c.emitLine("%s.setXY(%s.x, %s);", ref, ref, value.AsNumber())
	case "direction":
		c.emitLine("%s.setDirection(%s);", ref, value.AsNumber())
	case "size":
		c.emitLine("%s.setSize(%s);", ref, value.AsNumber())
	case "costume #", "backdrop #":
		c.emitLine("%s.setCostume(%s - 1);", ref, value.AsNumber())
	case "costume name", "backdrop name":
		c.emitLine("runtime.ext_scratch3_looks._setCostume(%s, %s);", ref, value.AsSafe())
	case "volume":
		c.emitLine("%s.volume = %s;", ref, value.AsNumber())
	default:
		slot := c.locals.Next()
		c.emitLine(`var %s = %s.lookupVariableByNameAndType(%s, "", true);`, slot, ref, quote(data.Property))
		c.emitLine("if (%s) %s.value = %s;", slot, slot, value.AsUnknown())
	}
	c.emitLine("}")
	c.resetVariableInputs()
	return nil
}
