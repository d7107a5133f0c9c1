package jsgen

import (
	"fmt"

	"sprocket/internal/ir"
)

// descendQueryInput lowers the expression kinds that read runtime state:
// looks, motion, mouse, keyboard, sensing, timer and list queries.
// handled is false when the kind belongs to no group here.
func (c *Compiler) descendQueryInput(node *ir.Node) (v Value, handled bool, err error) {
	switch node.Kind {
	case ir.KindLooksSize:
		return NewTyped("Math.round(target.size)", TypeNumber), true, nil
	case ir.KindLooksBackdropName:
		return NewTyped("stage.getCostumes()[stage.currentCostume].name", TypeString), true, nil
	case ir.KindLooksBackdropNumber:
		return NewTyped("(stage.currentCostume + 1)", TypeNumber), true, nil
	case ir.KindLooksCostumeName:
		return NewTyped("target.getCostumes()[target.currentCostume].name", TypeString), true, nil
	case ir.KindLooksCostumeNumber:
		return NewTyped("(target.currentCostume + 1)", TypeNumber), true, nil

	case ir.KindMotionDirection:
		return NewTyped("target.direction", TypeNumber), true, nil
	case ir.KindMotionX:
		return NewTyped("limitPrecision(target.x)", TypeNumber), true, nil
	case ir.KindMotionY:
		return NewTyped("limitPrecision(target.y)", TypeNumber), true, nil

	case ir.KindMouseDown:
		return NewTyped("runtime.ioDevices.mouse.getIsDown()", TypeBoolean), true, nil
	case ir.KindMouseX:
		return NewTyped("runtime.ioDevices.mouse.getScratchX()", TypeNumber), true, nil
	case ir.KindMouseY:
		return NewTyped("runtime.ioDevices.mouse.getScratchY()", TypeNumber), true, nil

	case ir.KindKeyboardPressed:
		data, err := payload[ir.KeyPressedData](node)
		if err != nil {
			return nil, true, err
		}
		key, err := c.descendInput(data.Key)
		if err != nil {
			return nil, true, err
		}
		src := fmt.Sprintf("runtime.ioDevices.keyboard.getKeyIsDown(%s)", key.AsSafe())
		return NewTyped(src, TypeBoolean), true, nil

	case ir.KindTimerGet:
		return NewTyped("runtime.ioDevices.clock.projectTimer()", TypeNumber), true, nil
	case ir.KindTwLastKeyPressed:
		return NewTyped("runtime.ioDevices.keyboard.getLastKeyPressed()", TypeString), true, nil

	case ir.KindSensingAnswer:
		return NewTyped("runtime.ext_scratch3_sensing._answer", TypeString), true, nil
	case ir.KindSensingUsername:
		return NewTyped("runtime.ioDevices.userData.getUsername()", TypeString), true, nil
	case ir.KindSensingDaysSince2000:
		return NewTyped("daysSince2000()", TypeNumber), true, nil
	case ir.KindSensingDate:
		return NewTyped("(new Date().getDate())", TypeNumber), true, nil
	case ir.KindSensingDayOfWeek:
		return NewTyped("(new Date().getDay() + 1)", TypeNumber), true, nil
	case ir.KindSensingHour:
		return NewTyped("(new Date().getHours())", TypeNumber), true, nil
	case ir.KindSensingMinute:
		return NewTyped("(new Date().getMinutes())", TypeNumber), true, nil
	case ir.KindSensingMonth:
		return NewTyped("(new Date().getMonth() + 1)", TypeNumber), true, nil
	case ir.KindSensingSecond:
		return NewTyped("(new Date().getSeconds())", TypeNumber), true, nil
	case ir.KindSensingYear:
		return NewTyped("(new Date().getFullYear())", TypeNumber), true, nil

	case ir.KindSensingTouching:
		data, err := payload[ir.TouchingData](node)
		if err != nil {
			return nil, true, err
		}
		object, err := c.descendInput(data.Object)
		if err != nil {
			return nil, true, err
		}
		return NewTyped(fmt.Sprintf("target.isTouchingObject(%s)", object.AsUnknown()), TypeBoolean), true, nil

	case ir.KindSensingTouchingColor:
		data, err := payload[ir.TouchingColorData](node)
		if err != nil {
			return nil, true, err
		}
		color, err := c.descendInput(data.Color)
		if err != nil {
			return nil, true, err
		}
		return NewTyped(fmt.Sprintf("target.isTouchingColor(colorToList(%s))", color.AsColor()), TypeBoolean), true, nil

	case ir.KindSensingColorTouchingColor:
		data, err := payload[ir.ColorTouchingColorData](node)
		if err != nil {
			return nil, true, err
		}
		targetColor, err := c.descendInput(data.Target)
		if err != nil {
			return nil, true, err
		}
		mask, err := c.descendInput(data.Mask)
		if err != nil {
			return nil, true, err
		}
		src := fmt.Sprintf("target.colorIsTouchingColor(colorToList(%s), colorToList(%s))",
			targetColor.AsColor(), mask.AsColor())
		return NewTyped(src, TypeBoolean), true, nil

	case ir.KindSensingDistance:
		data, err := payload[ir.DistanceData](node)
		if err != nil {
			return nil, true, err
		}
		target, err := c.descendInput(data.Target)
		if err != nil {
			return nil, true, err
		}
		return NewTyped(fmt.Sprintf("distance(%s)", target.AsString()), TypeNumber), true, nil

	case ir.KindSensingOf:
		data, err := payload[ir.OfData](node)
		if err != nil {
			return nil, true, err
		}
		v, err := c.lowerSensingOf(data)
		return v, true, err

	case ir.KindListContains:
		data, err := payload[ir.ListItemData](node)
		if err != nil {
			return nil, true, err
		}
		item, err := c.descendInput(data.Item)
		if err != nil {
			return nil, true, err
		}
		src := fmt.Sprintf("listContains(%s, %s)", c.referenceList(data.List), item.AsUnknown())
		return NewTyped(src, TypeBoolean), true, nil

	case ir.KindListContents:
		data, err := payload[ir.ListData](node)
		if err != nil {
			return nil, true, err
		}
		return NewTyped(fmt.Sprintf("listContents(%s)", c.referenceList(data.List)), TypeString), true, nil

	case ir.KindListIndexOf:
		data, err := payload[ir.ListItemData](node)
		if err != nil {
			return nil, true, err
		}
		item, err := c.descendInput(data.Item)
		if err != nil {
			return nil, true, err
		}
		src := fmt.Sprintf("listIndexOf(%s, %s)", c.referenceList(data.List), item.AsUnknown())
		return NewTyped(src, TypeNumber), true, nil

	case ir.KindListLength:
		data, err := payload[ir.ListData](node)
		if err != nil {
			return nil, true, err
		}
		return NewTyped(fmt.Sprintf("%s.value.length", c.referenceList(data.List)), TypeNumber), true, nil

	case ir.KindListGet:
		data, err := payload[ir.ListIndexData](node)
		if err != nil {
			return nil, true, err
		}
		v, err := c.lowerListGet(data)
		return v, true, err
	}
	return nil, false, nil
}

// lowerListGet reads one list element. With nullish coalescing available,
// numeric and "last" indices can use direct array access; everything else
// goes through the runtime helper.
func (c *Compiler) lowerListGet(data ir.ListIndexData) (Value, error) {
	list := c.referenceList(data.List)
	index, err := c.descendInput(data.Index)
	if err != nil {
		return nil, err
	}
	if c.env.SupportsNullishCoalescing {
		if index.IsAlwaysNumberOrNaN() {
			src := fmt.Sprintf(`(%s.value[(%s | 0) - 1] ?? "")`, list, index.AsNumber())
			return NewTyped(src, TypeUnknown), nil
		}
		if lit, ok := index.(*Constant); ok && ToString(lit.value) == "last" {
			src := fmt.Sprintf(`(%s.value[%s.value.length - 1] ?? "")`, list, list)
			return NewTyped(src, TypeUnknown), nil
		}
	}
	return NewTyped(fmt.Sprintf("listGet(%s.value, %s)", list, index.AsUnknown()), TypeUnknown), nil
}

// lowerSensingOf reads a property of another target. Constant targets are
// resolved once at setup time; everything else routes through the sensing
// primitive.
func (c *Compiler) lowerSensingOf(data ir.OfData) (Value, error) {
	object, err := c.descendInput(data.Object)
	if err != nil {
		return nil, err
	}
	literal, isConstant := constantValue(data.Object)
	if !isConstant {
		src := fmt.Sprintf(`runtime.ext_scratch3_sensing.getAttributeOf({ OBJECT: %s, PROPERTY: %s })`,
			object.AsSafe(), quote(data.Property))
		return NewTyped(src, TypeUnknown), nil
	}

	isStage := ToString(literal) == "_stage_"
	ref := "stage"
	if !isStage {
		ref = c.evaluateOnce(fmt.Sprintf("runtime.getSpriteTargetByName(%s)", object.AsString()))
	}
	switch data.Property {
	case "x position":
		return NewTyped(fmt.Sprintf("(%s ? %s.x : 0)", ref, ref), TypeNumber), nil
	case "y position":
		return NewTyped(fmt.Sprintf("(%s ? %s.y : 0)", ref, ref), TypeNumber), nil
	case "direction":
		return NewTyped(fmt.Sprintf("(%s ? %s.direction : 0)", ref, ref), TypeNumber), nil
	case "costume #", "backdrop #":
		return NewTyped(fmt.Sprintf("(%s ? %s.currentCostume + 1 : 0)", ref, ref), TypeNumber), nil
	case "costume name", "backdrop name":
		src := fmt.Sprintf("(%s ? %s.getCostumes()[%s.currentCostume].name : 0)", ref, ref, ref)
		return NewTyped(src, TypeUnknown), nil
	case "size":
		return NewTyped(fmt.Sprintf("(%s ? %s.size : 0)", ref, ref), TypeNumber), nil
	case "volume":
		return NewTyped(fmt.Sprintf("(%s ? %s.volume : 0)", ref, ref), TypeNumber), nil
	default:
		// A variable read: resolve the slot itself at setup time.
		slot := c.evaluateOnce(fmt.Sprintf(`%s && %s.lookupVariableByNameAndType(%s, "", true)`,
			ref, ref, quote(data.Property)))
		return NewTyped(fmt.Sprintf("(%s ? %s.value : 0)", slot, slot), TypeUnknown), nil
	}
}
